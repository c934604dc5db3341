package config

import (
	"os"
	"testing"
)

func TestLoadFromEnvUsesDefaultsWhenUnset(t *testing.T) {
	for _, key := range []string{"REDIS_URL", "RABBITMQ_URL", "POSTGRES_URL", "API_PORT", "LOG_LEVEL", "LOG_JSON", "UPLOADS_DIR", "QR_CROPS_DIR", "PROCESSED_IMAGES_DIR", "CONFIDENCE_THRESHOLD"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIPort != 8000 {
		t.Fatalf("expected default API port 8000, got %d", cfg.APIPort)
	}
	if cfg.Detection.ConfidenceThreshold != 0.85 {
		t.Fatalf("expected default confidence threshold 0.85, got %f", cfg.Detection.ConfidenceThreshold)
	}
}

func TestLoadFromEnvOverlaysProvidedValues(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("REDIS_URL", "redis://example:6379/0")
	t.Setenv("RABBITMQ_URL", "amqp://example/")
	t.Setenv("POSTGRES_URL", "postgres://example/db")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIPort != 9090 {
		t.Fatalf("expected overlaid API port 9090, got %d", cfg.APIPort)
	}
	if cfg.Detection.ConfidenceThreshold != 0.5 {
		t.Fatalf("expected overlaid confidence threshold 0.5, got %f", cfg.Detection.ConfidenceThreshold)
	}
	if cfg.RedisURL != "redis://example:6379/0" {
		t.Fatalf("expected overlaid redis url, got %q", cfg.RedisURL)
	}
}

func TestLoadFromEnvRejectsInvalidAPIPort(t *testing.T) {
	t.Setenv("API_PORT", "not-a-number")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected an error for a non-numeric API_PORT")
	}
}

func TestLoadFromEnvRejectsOutOfRangePort(t *testing.T) {
	t.Setenv("API_PORT", "99999")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected validation error for an out-of-range API port")
	}
}
