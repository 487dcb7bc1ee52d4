package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/message"
)

// storedSession is the on-disk session format: {id, messages, lastResult}.
type storedSession struct {
	ID         string            `json:"id"`
	Messages   []message.Message `json:"messages"`
	LastResult json.RawMessage   `json:"lastResult,omitempty"`
}

// Store persists sessions as JSON files, one per session, under a base
// directory (default ~/.lasso/sessions).
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// NewStore creates a session store rooted at ~/.lasso/sessions.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(homeDir, ".lasso", "sessions"))
}

// NewStoreAt creates a session store rooted at an explicit directory.
func NewStoreAt(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes a session into the store's base directory.
func (st *Store) Save(s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return writeSession(filepath.Join(st.baseDir, s.ID+".json"), s)
}

// SaveTo writes a session to an explicit file path.
func (st *Store) SaveTo(path string, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return writeSession(path, s)
}

// Load reads a session by id from the store's base directory.
func (st *Store) Load(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return readSession(filepath.Join(st.baseDir, id+".json"))
}

// LoadFrom reads a session from an explicit file path.
func (st *Store) LoadFrom(path string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return readSession(path)
}

// List returns the ids of all stored sessions, sorted.
func (st *Store) List() ([]string, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	entries, err := os.ReadDir(st.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	ids := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func writeSession(path string, s *Session) error {
	lastResult, err := agent.MarshalResult(s.LastResult)
	if err != nil {
		return err
	}
	stored := storedSession{
		ID:         s.ID,
		Messages:   s.Messages,
		LastResult: lastResult,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	lastResult, err := agent.UnmarshalResult(stored.LastResult)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         stored.ID,
		Messages:   stored.Messages,
		LastResult: lastResult,
	}, nil
}
