package server

import (
	"errors"
	"mime/multipart"
	"net/http"

	"Vibe/logger"
	"Vibe/storage"

	"github.com/gorilla/mux"
)

const (
	maxUploadMemory  = 32 << 20
	defaultMaxUpload = 50 << 20
)

// parseUpload caps the request body at the configured size and parses the
// multipart form. On failure the response is already written: 413 when the
// body is over the cap, 400 otherwise.
func (h *APIHandler) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	if r.ContentLength > h.maxUpload {
		h.rejectUpload(w, r.ContentLength)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	err := r.ParseMultipartForm(maxUploadMemory)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.rejectUpload(w, -1)
		return false
	}
	writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
	return false
}

func (h *APIHandler) rejectUpload(w http.ResponseWriter, size int64) {
	logger.Warn("Upload rejected", logger.Int64("limit", h.maxUpload), logger.Int64("contentLength", size))
	writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds size limit")
}

// UploadHandler stores the multipart "file" field and returns its URL.
// The kind comes from the path: /api/upload/{kind}.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := storage.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if !h.parseUpload(w, r) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'file' in form")
		return
	}
	defer file.Close()

	url, err := h.upload(r, kind, file, header)
	if err != nil {
		writeUploadError(w, kind, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"secure_url": url})
}

func (h *APIHandler) upload(r *http.Request, kind storage.Kind, file multipart.File, header *multipart.FileHeader) (string, error) {
	url, err := h.uploader.Upload(r.Context(), kind, header.Filename, file, header.Size)
	if err != nil {
		logger.Error("Upload failed",
			logger.String("kind", string(kind)),
			logger.String("filename", header.Filename),
			logger.Int64("size", header.Size),
			logger.ErrorField(err))
		return "", err
	}
	logger.Info("Upload stored", logger.String("kind", string(kind)), logger.String("url", url))
	return url, nil
}

func writeUploadError(w http.ResponseWriter, kind storage.Kind, err error) {
	var upErr *storage.UploadError
	if errors.As(err, &upErr) {
		writeError(w, http.StatusInternalServerError, upErr.Message())
		return
	}
	writeError(w, http.StatusInternalServerError, (&storage.UploadError{Kind: kind}).Message())
}
