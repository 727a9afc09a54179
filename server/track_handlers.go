package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Vibe/logger"
	"Vibe/model"
	"Vibe/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GetTracksHandler lists the whole catalog.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.ListTracks(r.Context())
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch tracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTrackHandler returns one track.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := h.lookupTrack(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// trackForm is the validated metadata of a track upload.
type trackForm struct {
	Name       string
	ArtistName string
	AlbumName  string
	Duration   float64
}

func parseTrackForm(r *http.Request) (trackForm, error) {
	f := trackForm{
		Name:       strings.TrimSpace(r.FormValue("name")),
		ArtistName: strings.TrimSpace(r.FormValue("artist_name")),
		AlbumName:  strings.TrimSpace(r.FormValue("album_name")),
	}
	if f.Name == "" || f.ArtistName == "" {
		return f, fmt.Errorf("name and artist_name are required")
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("duration")), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return f, fmt.Errorf("duration must be a positive number of seconds")
	}
	f.Duration = d
	return f, nil
}

// UploadTrackHandler creates a track from a multipart form:
//   - name, artist_name (required), album_name, duration (seconds, > 0)
//   - audio: the audio file
//   - image: the cover image
//
// The audio is uploaded first, then the cover, then the row is inserted.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !h.parseUpload(w, r) {
		return
	}

	form, err := parseTrackForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'audio' in form")
		return
	}
	defer audioFile.Close()
	imageFile, imageHeader, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'image' in form")
		return
	}
	defer imageFile.Close()

	audioURL, err := h.upload(r, storage.KindAudio, audioFile, audioHeader)
	if err != nil {
		writeUploadError(w, storage.KindAudio, err)
		return
	}
	imageURL, err := h.upload(r, storage.KindImage, imageFile, imageHeader)
	if err != nil {
		writeUploadError(w, storage.KindImage, err)
		return
	}

	track := &model.Track{
		ID:         uuid.NewString(),
		Name:       form.Name,
		ArtistName: form.ArtistName,
		AlbumName:  form.AlbumName,
		AlbumImage: imageURL,
		AudioURL:   audioURL,
		Duration:   form.Duration,
		UserID:     userID,
		CreatedAt:  time.Now(),
	}
	if err := h.trackRepo.CreateTrack(r.Context(), track); err != nil {
		logger.Error("Failed to insert track", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to save track")
		return
	}

	logger.Info("Track uploaded", logger.String("trackId", track.ID), logger.String("userId", userID))
	writeJSON(w, http.StatusCreated, track)
}
