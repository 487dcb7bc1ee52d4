package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lassoai/lasso-cli/internal/log"
	"github.com/lassoai/lasso-cli/internal/message"
)

// RemoteSession is a server-persisted session with its message history.
type RemoteSession struct {
	ID       string            `json:"id"`
	Messages []message.Message `json:"messages"`
}

// SessionInfo is one row in a session listing.
type SessionInfo struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	MessageCount int    `json:"message_count"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// CreateSession asks the server for a new session and returns its
// server-assigned id.
func (c *Client) CreateSession(ctx context.Context, token string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, token, http.MethodPost, "/sessions", map[string]any{}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("server returned empty session id")
	}
	return out.ID, nil
}

// FetchSession retrieves a session with its full message history.
func (c *Client) FetchSession(ctx context.Context, token, id string) (*RemoteSession, error) {
	var out RemoteSession
	if err := c.doJSON(ctx, token, http.MethodGet, "/sessions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendMessages bulk-appends a turn's messages to a server session.
// Fire-and-forget per the backend contract: failures are logged and
// never surfaced to the caller.
func (c *Client) AppendMessages(ctx context.Context, token, id string, msgs []message.Message) {
	body := map[string]any{"messages": msgs}
	if err := c.doJSON(ctx, token, http.MethodPost, "/sessions/"+id+"/messages/bulk", body, nil); err != nil {
		log.LogError("api", fmt.Errorf("bulk append to session %s failed: %w", id, err))
	}
}

// ListSessions returns a page of recent sessions.
func (c *Client) ListSessions(ctx context.Context, token string, page, perPage int) ([]SessionInfo, error) {
	path := fmt.Sprintf("/sessions?page=%d&per_page=%d", page, perPage)
	var out struct {
		Sessions []SessionInfo `json:"sessions"`
	}
	if err := c.doJSON(ctx, token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}
