package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"Vibe/config"
	"Vibe/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader stores media in a MinIO (or S3 compatible) bucket.
type MinioUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioUploader connects to MinIO and creates the bucket if it is missing.
func NewMinioUploader(cfg *config.Config) (*MinioUploader, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	u := &MinioUploader{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: publicBaseURL(cfg),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := u.ensureBucket(ctx, cfg.MinioRegion); err != nil {
		return nil, err
	}
	return u, nil
}

func publicBaseURL(cfg *config.Config) string {
	if cfg.MinioPublicURL != "" {
		return strings.TrimRight(cfg.MinioPublicURL, "/")
	}
	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.MinioEndpoint
}

func (u *MinioUploader) ensureBucket(ctx context.Context, region string) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	logger.Info("Created media bucket", logger.String("bucket", u.bucket))
	return nil
}

// objectKey places images and audio under separate prefixes with a random name.
func objectKey(kind Kind, filename string) (string, error) {
	prefix := "audio"
	switch kind {
	case KindImage:
		prefix = "images"
	case KindAudio:
	default:
		return "", fmt.Errorf("unsupported upload kind %q", kind)
	}
	return prefix + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename)), nil
}

// Upload puts r into the bucket and returns its public URL.
func (u *MinioUploader) Upload(ctx context.Context, kind Kind, filename string, r io.Reader, size int64) (string, error) {
	key, err := objectKey(kind, filename)
	if err != nil {
		return "", &UploadError{Kind: kind, Err: err}
	}

	_, err = u.client.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: inferContentType(kind, filename),
	})
	if err != nil {
		logger.Error("MinIO upload failed", logger.String("kind", string(kind)), logger.String("key", key), logger.ErrorField(err))
		return "", &UploadError{Kind: kind, Err: err}
	}

	logger.Info("Uploaded media to MinIO", logger.String("key", key), logger.Int64("bytes", size))
	return u.publicURL + "/" + u.bucket + "/" + key, nil
}

// BucketStats summarizes the objects under a prefix.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ListObjects lists the objects under prefix along with their totals.
func (u *MinioUploader) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	for object := range u.client.ListObjects(ctx, u.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("list objects: %w", object.Err)
		}

		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}

		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}

	return objects, stats, nil
}

// Bucket returns the bucket name.
func (u *MinioUploader) Bucket() string { return u.bucket }

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
