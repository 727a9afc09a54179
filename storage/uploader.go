package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"Vibe/config"
)

// Kind classifies an uploaded payload.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// ParseKind validates an upload kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindImage:
		return KindImage, nil
	case KindAudio:
		return KindAudio, nil
	}
	return "", fmt.Errorf("unsupported upload kind %q", s)
}

// Uploader stores a media payload and returns a publicly resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, kind Kind, filename string, r io.Reader, size int64) (string, error)
}

// UploadError carries the human-readable message shown to the client.
type UploadError struct {
	Kind Kind
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Kind, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Message is the client-facing text for the failed upload.
func (e *UploadError) Message() string {
	return fmt.Sprintf("Failed to upload %s", e.Kind)
}

// New returns the uploader selected by cfg.MediaBackend.
func New(cfg *config.Config) (Uploader, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendCloudinary:
		return NewCloudinaryUploader(cfg)
	case config.MediaBackendMinio:
		return NewMinioUploader(cfg)
	}
	return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
}

// inferContentType guesses a MIME type from the file extension.
func inferContentType(kind Kind, filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	if kind == KindImage {
		return "image/*"
	}
	return "application/octet-stream"
}
