package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lassoai/lasso-cli/internal/api"
	"github.com/lassoai/lasso-cli/internal/log"
)

// Remote is the subset of the API client the manager needs for
// server-backed sessions.
type Remote interface {
	CreateSession(ctx context.Context, token string) (string, error)
	FetchSession(ctx context.Context, token, id string) (*api.RemoteSession, error)
}

// Manager owns the process-lifetime session cache. It is an explicit
// value passed to its callers, not package state, so tests get isolated
// instances.
//
// Two variants exist, selected at construction: local (client-generated
// ids, no server sync) and remote (server-assigned ids, unknown ids
// hydrated from the server). Both check the cache first, which keeps
// at most one hydrate in flight per id per process.
//
// Turns within one session must be sequential; the manager does not
// serialize concurrent calls on the same id. Calls across different
// session ids are independent.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    *Store
	remote   Remote
}

// NewManager creates a local-variant manager. store may be nil when
// file persistence is not needed.
func NewManager(store *Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

// NewRemoteManager creates a server-backed manager.
func NewRemoteManager(remote Remote, store *Store) *Manager {
	m := NewManager(store)
	m.remote = remote
	return m
}

// Create starts a fresh session with a client-generated id.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{ID: uuid.NewString()}
	m.sessions[s.ID] = s
	return s
}

// Get returns the cached session for id, if any.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate resolves a session for the coming turn. The cache is
// always consulted first; a cached session is returned as the same
// object, never a copy. With no id, a new session is created (server-
// assigned id in the remote variant, client-generated otherwise). An
// unknown id starts empty locally, or is fetched and hydrated in the
// remote variant.
func (m *Manager) GetOrCreate(ctx context.Context, token, id string) (*Session, error) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, nil
		}
	}

	if m.remote == nil {
		return m.localGetOrCreate(id), nil
	}
	return m.remoteGetOrCreate(ctx, token, id)
}

func (m *Manager) localGetOrCreate(id string) *Session {
	if id == "" {
		return m.Create()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{ID: id}
	m.sessions[id] = s
	return s
}

func (m *Manager) remoteGetOrCreate(ctx context.Context, token, id string) (*Session, error) {
	if id == "" {
		serverID, err := m.remote.CreateSession(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to create server session: %w", err)
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		s := &Session{ID: serverID}
		m.sessions[serverID] = s
		return s, nil
	}

	remote, err := m.remote.FetchSession(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A concurrent hydrate may have won the race; keep the cached object
	// so one id never maps to two distinct sessions.
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := &Session{ID: remote.ID, Messages: remote.Messages}
	m.sessions[s.ID] = s
	return s, nil
}

// Save persists a known session to path. Unknown ids are an error.
func (m *Manager) Save(id, path string) error {
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	if m.store == nil {
		return fmt.Errorf("no session store configured")
	}
	return m.store.SaveTo(path, s)
}

// Load restores a session from path into the cache, overwriting any
// existing session with the same id, and returns the id.
func (m *Manager) Load(path string) (string, error) {
	if m.store == nil {
		return "", fmt.Errorf("no session store configured")
	}
	s, err := m.store.LoadFrom(path)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s.ID, nil
}

// Persist writes a session into the store's base directory, if a store
// is configured. Failures are logged, not surfaced: losing a local
// snapshot must not fail the turn that produced it.
func (m *Manager) Persist(s *Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(s); err != nil {
		log.LogError("session", err)
	}
}
