// Package config loads Lasso settings. Sources, lowest to highest
// priority: compiled defaults, ~/.lasso/config.yaml, LASSO_* env vars.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL = "https://api.lasso.ai/v1"
	defaultTimeout = 120 * time.Second
)

// SessionMode selects the conversation persistence variant.
type SessionMode string

const (
	// SessionLocal keeps sessions on this machine only.
	SessionLocal SessionMode = "local"
	// SessionRemote persists sessions on the server.
	SessionRemote SessionMode = "remote"
)

// Config is the resolved client configuration.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	SessionMode SessionMode   `yaml:"session_mode"`
}

// Load resolves the configuration. A missing config file is fine; a
// malformed one is an error the caller treats as fatal.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:     defaultBaseURL,
		Timeout:     defaultTimeout,
		SessionMode: SessionLocal,
	}

	path, err := configPath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.SessionMode != SessionLocal && cfg.SessionMode != SessionRemote {
		return nil, fmt.Errorf("invalid session_mode %q (want local or remote)", cfg.SessionMode)
	}
	return cfg, nil
}

func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".lasso", "config.yaml"), nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LASSO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LASSO_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("LASSO_SESSION_MODE"); v != "" {
		cfg.SessionMode = SessionMode(v)
	}
}
