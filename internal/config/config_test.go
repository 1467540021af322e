package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.kickstart.app/api/v1" {
		t.Fatalf("unexpected base URL %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.StreamMaxRetries != 8 {
		t.Fatalf("unexpected stream retries %d", cfg.StreamMaxRetries)
	}
	if cfg.DataDir == "" {
		t.Fatal("data dir must have a default")
	}
	if cfg.EnableGoogleSignIn || cfg.EnableAppleSignIn || cfg.EnableGuestMode {
		t.Fatal("feature flags must default off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KICKSTART_API_BASE_URL", "http://localhost:9000/api/v1/")
	t.Setenv("KICKSTART_REQUEST_TIMEOUT", "5s")
	t.Setenv("KICKSTART_STREAM_MAX_RETRIES", "3")
	t.Setenv("KICKSTART_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("KICKSTART_ENABLE_GUEST_MODE", "true")
	t.Setenv("KICKSTART_ENABLE_GOOGLE_SIGNIN", "1")
	t.Setenv("KICKSTART_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:9000/api/v1" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.StreamMaxRetries != 3 {
		t.Fatalf("unexpected stream retries %d", cfg.StreamMaxRetries)
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Fatalf("unexpected rate %v", cfg.RequestsPerSecond)
	}
	if !cfg.EnableGuestMode || !cfg.EnableGoogleSignIn {
		t.Fatal("boolean overrides not applied")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("KICKSTART_REQUEST_TIMEOUT", "soon")
	t.Setenv("KICKSTART_STREAM_MAX_RETRIES", "several")
	t.Setenv("KICKSTART_REQUESTS_PER_SECOND", "fast")
	t.Setenv("KICKSTART_ENABLE_GUEST_MODE", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("malformed duration should fall back, got %v", cfg.RequestTimeout)
	}
	if cfg.StreamMaxRetries != 8 {
		t.Fatalf("malformed int should fall back, got %d", cfg.StreamMaxRetries)
	}
	if cfg.RequestsPerSecond != 10 {
		t.Fatalf("malformed float should fall back, got %v", cfg.RequestsPerSecond)
	}
	if cfg.EnableGuestMode {
		t.Fatal("malformed bool should fall back to false")
	}
}
