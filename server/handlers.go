package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"Vibe/core/auth"
	"Vibe/core/library"
	"Vibe/core/playback"
	"Vibe/core/session"
	"Vibe/logger"
	"Vibe/model"
	"Vibe/repository"
	"Vibe/storage"
)

// Assistant is the chat completion client behind /api/ask.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
	RecommendArtists(ctx context.Context, liked []model.Track) ([]model.ArtistRecommendation, error)
}

// APIHandler serves the REST API and the player socket.
type APIHandler struct {
	trackRepo repository.TrackRepository
	userRepo  repository.UserRepository
	uploader  storage.Uploader
	assistant Assistant
	tokens    *auth.TokenManager
	sessions  *session.Manager
	maxUpload int64
}

// Deps are the collaborators of an APIHandler.
type Deps struct {
	Tracks    repository.TrackRepository
	Users     repository.UserRepository
	Uploader  storage.Uploader
	Assistant Assistant
	Tokens    *auth.TokenManager
	Sessions  *session.Manager

	// MaxUploadBytes caps multipart request bodies; zero means defaultMaxUpload.
	MaxUploadBytes int64
}

// NewAPIHandler wires an APIHandler from its dependencies.
func NewAPIHandler(d Deps) *APIHandler {
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &APIHandler{
		trackRepo: d.Tracks,
		userRepo:  d.Users,
		uploader:  d.Uploader,
		assistant: d.Assistant,
		tokens:    d.Tokens,
		sessions:  d.Sessions,
		maxUpload: maxUpload,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var remote *library.RemoteError
	switch {
	case errors.Is(err, library.ErrUnauthenticated), errors.Is(err, session.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, playback.ErrNotReady):
		return http.StatusConflict
	case errors.As(err, &remote):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// session resolves the caller's session; on failure the response is written.
func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	s, err := h.sessions.Get(userID)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

// lookupTrack loads a track or writes 404/500.
func (h *APIHandler) lookupTrack(w http.ResponseWriter, r *http.Request, id string) (*model.Track, bool) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "track_id is required")
		return nil, false
	}
	track, err := h.trackRepo.GetTrackByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to load track", logger.String("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load track")
		return nil, false
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return nil, false
	}
	return track, true
}

// tracksInOrder loads ids and returns them in the requested order, skipping
// unknown ids.
func (h *APIHandler) tracksInOrder(ctx context.Context, ids []string) ([]model.Track, error) {
	found, err := h.trackRepo.GetTracksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Track, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
