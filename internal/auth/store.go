package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lassoai/lasso-cli/internal/log"
)

// ErrNotAuthenticated is returned when no usable credentials exist:
// nothing stored, or an expired token that could not be refreshed.
var ErrNotAuthenticated = errors.New("not authenticated")

// RefreshFunc exchanges an expired token for a fresh one. It is
// satisfied by api.Client.RefreshToken.
type RefreshFunc func(ctx context.Context, token string) (newToken string, expiresAt int64, err error)

// Store manages the credential lifecycle. The storage backend is
// selected once at construction; pass WithBackend for test isolation
// instead of mutating package state.
type Store struct {
	backend Backend
	refresh RefreshFunc
}

// Option customizes store construction.
type Option func(*Store)

// WithBackend overrides the platform-probed backend.
func WithBackend(b Backend) Option {
	return func(s *Store) { s.backend = b }
}

// NewStore creates a credential store. refresh may be nil, in which
// case an expired token is treated the same as a failed refresh.
func NewStore(refresh RefreshFunc, opts ...Option) *Store {
	s := &Store{refresh: refresh}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = selectBackend()
	}
	return s
}

// BackendName reports which storage tier is in use.
func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Load reads stored credentials. Returns (nil, nil) when none exist.
func (s *Store) Load() (*Credentials, error) {
	data, err := s.backend.Load()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse stored credentials: %w", err)
	}
	if creds.Token == "" {
		return nil, nil
	}
	return &creds, nil
}

// Save persists credentials.
func (s *Store) Save(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return s.backend.Save(data)
}

// Clear removes stored credentials.
func (s *Store) Clear() error {
	return s.backend.Clear()
}

// GetValidToken returns a token that is not known to be expired. An
// expired token triggers a silent refresh; the refreshed credentials
// are persisted before the token is returned, so a stale or
// memory-only token is never handed out. Any refresh failure clears
// the store entirely and reports ErrNotAuthenticated.
func (s *Store) GetValidToken(ctx context.Context) (string, error) {
	creds, err := s.Load()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrNotAuthenticated
	}

	if !IsExpired(creds.EffectiveExpiry()) {
		return creds.Token, nil
	}

	if s.refresh == nil {
		_ = s.Clear()
		return "", ErrNotAuthenticated
	}

	log.Logger().Debug("token expired, attempting refresh")
	newToken, expiresAt, err := s.refresh(ctx, creds.Token)
	if err != nil {
		_ = s.Clear()
		return "", fmt.Errorf("%w: refresh failed: %v", ErrNotAuthenticated, err)
	}

	refreshed := *creds
	refreshed.Token = newToken
	refreshed.ExpiresAt = expiresAt
	if err := s.Save(refreshed); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	return newToken, nil
}
