package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"Vibe/core/playback"
	"Vibe/core/player"
	"Vibe/logger"
	"Vibe/model"

	"github.com/gorilla/mux"
)

type transportRequest struct {
	TrackID  string   `json:"track_id,omitempty"`
	TrackIDs []string `json:"track_ids,omitempty"`
	Play     *bool    `json:"play,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Position *float64 `json:"position,omitempty"`
}

type transportResponse struct {
	State    player.State `json:"state"`
	Advanced *bool        `json:"advanced,omitempty"`
}

// decodeOptional reads a JSON body that may be empty.
func decodeOptional(r *http.Request, v interface{}) error {
	if err := decodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// PlayerStateHandler returns the caller's player snapshot.
func (h *APIHandler) PlayerStateHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// PlayerCommandHandler applies /api/player/{command}.
func (h *APIHandler) PlayerCommandHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req transportRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	command := mux.Vars(r)["command"]
	var resp transportResponse
	var op func(store *player.Store, engine *playback.Engine) error

	switch command {
	case "track":
		track, ok := h.lookupTrack(w, r, req.TrackID)
		if !ok {
			return
		}
		play := req.Play == nil || *req.Play
		op = func(store *player.Store, _ *playback.Engine) error {
			store.SetCurrentTrack(*track)
			store.SetIsPlaying(play)
			return nil
		}
	case "queue":
		tracks, err := h.tracksInOrder(r.Context(), req.TrackIDs)
		if err != nil {
			logger.Error("Failed to resolve queue", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to load tracks")
			return
		}
		op = func(store *player.Store, _ *playback.Engine) error {
			store.SetQueue(tracks)
			return nil
		}
	case "next", "previous":
		op = func(store *player.Store, _ *playback.Engine) error {
			var advanced bool
			if command == "next" {
				advanced = store.PlayNext()
			} else {
				advanced = store.PlayPrevious()
			}
			resp.Advanced = &advanced
			return nil
		}
	case "play", "pause":
		op = func(store *player.Store, _ *playback.Engine) error {
			store.SetIsPlaying(command == "play")
			return nil
		}
	case "volume":
		if req.Volume == nil {
			writeError(w, http.StatusBadRequest, "volume is required")
			return
		}
		op = func(store *player.Store, _ *playback.Engine) error {
			store.SetVolume(*req.Volume)
			return nil
		}
	case "repeat":
		var mode model.RepeatMode
		if req.Mode != "" {
			m, err := model.ParseRepeatMode(req.Mode)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			mode = m
		}
		op = func(store *player.Store, _ *playback.Engine) error {
			if mode == "" {
				store.CycleRepeat()
			} else {
				store.SetRepeat(mode)
			}
			return nil
		}
	case "shuffle":
		op = func(store *player.Store, _ *playback.Engine) error {
			on := !store.Snapshot().Shuffle
			if req.Enabled != nil {
				on = *req.Enabled
			}
			store.SetShuffle(on)
			return nil
		}
	case "seek":
		if req.Position == nil {
			writeError(w, http.StatusBadRequest, "position is required")
			return
		}
		op = func(_ *player.Store, engine *playback.Engine) error {
			return engine.Seek(*req.Position)
		}
	default:
		writeError(w, http.StatusNotFound, "Unknown player command")
		return
	}

	st, err := sess.Do(op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp.State = st
	writeJSON(w, http.StatusOK, resp)
}

// RecentHandler returns (GET) or clears (DELETE) recently played tracks.
func (h *APIHandler) RecentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodDelete {
		sess.Do(func(store *player.Store, _ *playback.Engine) error {
			store.ClearRecentlyPlayed()
			return nil
		})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot().RecentlyPlayed)
}

// PlayerEventHandler accepts a media event from an element that is not
// connected over the WebSocket.
func (h *APIHandler) PlayerEventHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var ev playback.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	applied, err := sess.HandleEvent(ev)
	if err != nil {
		if errors.Is(err, playback.ErrNotReady) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applied": applied, "state": sess.Snapshot()})
}
