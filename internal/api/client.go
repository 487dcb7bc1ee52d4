// Package api is the HTTP client for the Lasso backend. It normalizes
// transport and backend errors into plain error values; classification
// into the error taxonomy happens in core, not here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/log"
	"github.com/lassoai/lasso-cli/internal/message"
)

const defaultTimeout = 120 * time.Second

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend client. timeout of 0 uses the default;
// it bounds every call including the streaming chat request, which is
// the only cancellation mechanism this client offers.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// ChatStream POSTs the conversation and returns the raw response body
// for the stream decoder. The caller owns closing it.
func (c *Client) ChatStream(ctx context.Context, token string, msgs []message.Message) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]any{"messages": msgs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	log.LogRequest(http.MethodPost, "/chat", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

// ProfileDetail fetches the full record behind a search hit.
func (c *Client) ProfileDetail(ctx context.Context, token, profileID string) (*agent.DetailedProfile, error) {
	var out struct {
		Profile agent.DetailedProfile `json:"profile"`
	}
	if err := c.doJSON(ctx, token, http.MethodGet, "/profile/"+profileID+"/detail", nil, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// doJSON performs a bearer-authed JSON request and decodes the response
// into out (which may be nil when no body is expected).
func (c *Client) doJSON(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.LogRequest(method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an error carrying the
// backend's message verbatim when one is present.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("%s", body.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}
