package server

import (
	"errors"
	"net/http"

	"Vibe/core/library"
	"Vibe/logger"
	"Vibe/model"

	"github.com/gorilla/mux"
)

// GetLikesHandler returns the caller's liked tracks, reconciled against the
// remote relations.
func (h *APIHandler) GetLikesHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	lib := sess.Library()
	all, err := lib.FetchTracks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := lib.LoadLikedTracks(r.Context(), sess.UserID, all); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib.LikedTracks())
}

// ToggleLikeHandler flips the like of {trackId}.
func (h *APIHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	track, ok := h.lookupTrack(w, r, mux.Vars(r)["trackId"])
	if !ok {
		return
	}

	liked, err := sess.Library().ToggleLike(r.Context(), sess.UserID, *track)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error(), "liked": liked})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// createPlaylistRequest accepts full tracks or track ids.
type createPlaylistRequest struct {
	library.NewPlaylist
	TrackIDs []string `json:"track_ids"`
}

// PlaylistsHandler lists (GET) or creates (POST) playlists.
func (h *APIHandler) PlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	lib := sess.Library()

	if r.Method == http.MethodGet {
		list, err := lib.FetchPlaylists(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := req.NewPlaylist
	if len(in.Tracks) == 0 && len(req.TrackIDs) > 0 {
		tracks, err := h.tracksInOrder(r.Context(), req.TrackIDs)
		if err != nil {
			logger.Error("Failed to resolve playlist tracks", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to load tracks")
			return
		}
		in.Tracks = tracks
	}

	p, err := lib.CreatePlaylist(r.Context(), in)
	if err != nil {
		writePlaylistError(w, p, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// writePlaylistError reports err; a remote failure also returns the local
// copy so the client can show what it holds.
func writePlaylistError(w http.ResponseWriter, p model.Playlist, err error) {
	var remote *library.RemoteError
	if errors.As(err, &remote) && p.ID != "" {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error(), "playlist": p})
		return
	}
	writeDomainError(w, err)
}

// PlaylistHandler updates (PUT) or deletes (DELETE) playlist {id}.
func (h *APIHandler) PlaylistHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	if r.Method == http.MethodDelete {
		if err := sess.Library().DeletePlaylist(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var upd model.PlaylistUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := sess.Library().UpdatePlaylist(r.Context(), id, upd)
	if err != nil {
		writePlaylistError(w, p, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AddPlaylistTrackHandler appends {track_id} to playlist {id}.
func (h *APIHandler) AddPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		TrackID string `json:"track_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	track, ok := h.lookupTrack(w, r, req.TrackID)
	if !ok {
		return
	}

	p, err := sess.Library().AddToPlaylist(r.Context(), mux.Vars(r)["id"], *track)
	if err != nil {
		writePlaylistError(w, p, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RemovePlaylistTrackHandler drops {trackId} from playlist {id}.
func (h *APIHandler) RemovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	p, err := sess.Library().RemoveFromPlaylist(r.Context(), vars["id"], vars["trackId"])
	if err != nil {
		writePlaylistError(w, p, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
