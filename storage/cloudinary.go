package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"Vibe/config"
	"Vibe/logger"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader stores media on Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds a client from CLOUDINARY_URL, or from the
// split cloud name / key / secret when the URL is not set.
func NewCloudinaryUploader(cfg *config.Config) (*CloudinaryUploader, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.CloudinaryURL != "" {
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryUploader{cld: cld}, nil
}

// uploadParams maps a kind to its folder and resource type. Audio goes up as
// "video", which is how Cloudinary classifies audio.
func uploadParams(kind Kind) (uploader.UploadParams, error) {
	switch kind {
	case KindImage:
		return uploader.UploadParams{Folder: "vibe/images", ResourceType: "image"}, nil
	case KindAudio:
		return uploader.UploadParams{Folder: "vibe/audio", ResourceType: "video"}, nil
	}
	return uploader.UploadParams{}, fmt.Errorf("unsupported upload kind %q", kind)
}

// Upload streams r to Cloudinary and returns the secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, kind Kind, filename string, r io.Reader, size int64) (string, error) {
	params, err := uploadParams(kind)
	if err != nil {
		return "", &UploadError{Kind: kind, Err: err}
	}

	res, err := u.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		logger.Error("Cloudinary upload failed", logger.String("kind", string(kind)), logger.String("filename", filename), logger.ErrorField(err))
		return "", &UploadError{Kind: kind, Err: err}
	}
	if res.Error.Message != "" {
		err := errors.New(res.Error.Message)
		logger.Error("Cloudinary rejected upload", logger.String("kind", string(kind)), logger.String("filename", filename), logger.ErrorField(err))
		return "", &UploadError{Kind: kind, Err: err}
	}

	logger.Info("Uploaded media to Cloudinary",
		logger.String("kind", string(kind)),
		logger.String("publicId", res.PublicID),
		logger.Int64("bytes", size))
	return res.SecureURL, nil
}
