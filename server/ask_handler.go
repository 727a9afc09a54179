package server

import (
	"net/http"
	"strings"

	"Vibe/logger"
	"Vibe/model"
)

const assistantFailure = "Failed to get response from the assistant."

// AskHandler proxies a single message to the chat completion service.
func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Message is missing or invalid.")
		return
	}
	message, ok := req.Message.(string)
	if !ok || strings.TrimSpace(message) == "" {
		writeError(w, http.StatusBadRequest, "Message is missing or invalid.")
		return
	}

	content, err := h.assistant.Ask(r.Context(), message)
	if err != nil {
		logger.Error("Chat completion failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, assistantFailure)
		return
	}
	writeJSON(w, http.StatusOK, model.AskResponse{Content: content})
}

// RecommendationsHandler suggests artists similar to the caller's liked
// tracks.
func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	liked, err := sess.Library().FetchLikedTracks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	recs, err := h.assistant.RecommendArtists(r.Context(), liked)
	if err != nil {
		logger.Error("Artist recommendation failed", logger.String("userId", sess.UserID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, assistantFailure)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}
