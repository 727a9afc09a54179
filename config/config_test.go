package config

import (
	"errors"
	"strings"
	"testing"
)

func TestFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("PORT", "5000")
		cfg := FromEnv()

		if cfg.Addr() != ":5000" {
			t.Errorf("expected addr :5000, got %s", cfg.Addr())
		}
		if cfg.AIModel != "openai/gpt-3.5-turbo" {
			t.Errorf("unexpected default model %s", cfg.AIModel)
		}
		if cfg.AIMaxTokens != 200 {
			t.Errorf("expected 200 max tokens, got %d", cfg.AIMaxTokens)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("REDIS_DB", "3")
		t.Setenv("MINIO_USE_SSL", "true")
		t.Setenv("AI_TEMPERATURE", "0.2")
		t.Setenv("MEDIA_BACKEND", "MinIO")
		cfg := FromEnv()

		if cfg.RedisDB != 3 {
			t.Errorf("expected redis db 3, got %d", cfg.RedisDB)
		}
		if !cfg.MinioUseSSL {
			t.Error("expected MinioUseSSL to be true")
		}
		if cfg.AITemperature != 0.2 {
			t.Errorf("expected temperature 0.2, got %v", cfg.AITemperature)
		}
		if cfg.MediaBackend != MediaBackendMinio {
			t.Errorf("expected backend minio, got %s", cfg.MediaBackend)
		}
	})

	t.Run("Upload Cap", func(t *testing.T) {
		t.Setenv("MAX_UPLOAD_MB", "8")
		if got := FromEnv().MaxUploadBytes(); got != 8<<20 {
			t.Errorf("expected 8 MB cap, got %d", got)
		}
		t.Setenv("MAX_UPLOAD_MB", "0")
		if got := FromEnv().MaxUploadBytes(); got != 50<<20 {
			t.Errorf("non-positive cap should fall back to 50 MB, got %d", got)
		}
	})

	t.Run("Malformed Int Falls Back", func(t *testing.T) {
		t.Setenv("REDIS_DB", "many")
		if got := FromEnv().RedisDB; got != 0 {
			t.Errorf("expected fallback 0, got %d", got)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OpenRouterAPIKey: "sk-test",
			JWTSecret:        "secret",
			MediaBackend:     MediaBackendCloudinary,
			CloudinaryURL:    "cloudinary://k:s@demo",
		}
	}

	t.Run("Complete", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Fatalf("expected valid config, got %v", err)
		}
	})

	t.Run("Missing AI Key", func(t *testing.T) {
		cfg := valid()
		cfg.OpenRouterAPIKey = ""
		err := cfg.Validate()
		if !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("expected ErrMissingCredential, got %v", err)
		}
		if !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
			t.Errorf("error should name the key: %v", err)
		}
	})

	t.Run("Split Cloudinary Keys", func(t *testing.T) {
		cfg := valid()
		cfg.CloudinaryURL = ""
		cfg.CloudinaryCloudName = "demo"
		cfg.CloudinaryAPIKey = "k"
		cfg.CloudinaryAPISecret = "s"
		if err := cfg.Validate(); err != nil {
			t.Fatalf("expected valid config, got %v", err)
		}
	})

	t.Run("Minio Without Keys", func(t *testing.T) {
		cfg := valid()
		cfg.MediaBackend = MediaBackendMinio
		if err := cfg.Validate(); !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("expected ErrMissingCredential, got %v", err)
		}
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		cfg := valid()
		cfg.MediaBackend = "ftp"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})
}
