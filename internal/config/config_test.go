package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, defaultTimeout)
	}
	if cfg.SessionMode != SessionLocal {
		t.Errorf("SessionMode = %s, want %s", cfg.SessionMode, SessionLocal)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".lasso")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "base_url: https://staging.lasso.ai/v1\nsession_mode: remote\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "https://staging.lasso.ai/v1" {
		t.Errorf("BaseURL = %s, want staging URL", cfg.BaseURL)
	}
	if cfg.SessionMode != SessionRemote {
		t.Errorf("SessionMode = %s, want %s", cfg.SessionMode, SessionRemote)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".lasso")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("base_url: https://file.example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LASSO_BASE_URL", "https://env.example")
	t.Setenv("LASSO_TIMEOUT_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "https://env.example" {
		t.Errorf("BaseURL = %s, env var should win over file", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestMalformedFileIsFatal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".lasso")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("base_url: [not: closed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestInvalidSessionModeRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LASSO_SESSION_MODE", "hybrid")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid session mode")
	}
}
