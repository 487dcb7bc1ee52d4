// Package core drives one conversation turn end to end: auth check,
// session resolution, the streaming chat call, decoding, synthesis,
// and history update. It is the single entry point behind every front
// end (CLI, pipe, TUI, MCP).
package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/log"
	"github.com/lassoai/lasso-cli/internal/message"
	"github.com/lassoai/lasso-cli/internal/session"
	"github.com/lassoai/lasso-cli/internal/stream"
)

// TokenSource yields a valid bearer token or fails. Satisfied by
// auth.Store.
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, error)
}

// Backend is the subset of the API client the orchestrator calls.
type Backend interface {
	ChatStream(ctx context.Context, token string, msgs []message.Message) (io.ReadCloser, error)
	ProfileDetail(ctx context.Context, token, profileID string) (*agent.DetailedProfile, error)
	AppendMessages(ctx context.Context, token, id string, msgs []message.Message)
}

// Orchestrator wires the collaborators for a turn. Collaborators are
// plain fields, injected by the caller; there is no package state.
type Orchestrator struct {
	Auth     TokenSource
	Sessions *session.Manager
	Backend  Backend

	// SyncRemote mirrors each completed turn to the server session via
	// fire-and-forget bulk append. Set for the server-backed session
	// variant only.
	SyncRemote bool
}

// Query runs one turn: the user's text is appended to the session
// before the network call, the full accumulated history is sent, the
// response stream is decoded, and exactly one result is returned. A
// turn never returns an absent result; failures come back as
// ErrorResult with a classified code.
func (o *Orchestrator) Query(ctx context.Context, text, sessionID string) (agent.Result, agent.Meta) {
	start := time.Now()

	if text == "" {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   "query text must not be empty",
			Code:      agent.CodeValidationError,
		}, metaAt(start)
	}

	token, err := o.Auth.GetValidToken(ctx)
	if err != nil {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   err.Error(),
			Code:      agent.CodeAuthError,
		}, metaAt(start)
	}

	sess, err := o.Sessions.GetOrCreate(ctx, token, sessionID)
	if err != nil {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   err.Error(),
			Code:      agent.Classify(err.Error()),
		}, metaAt(start)
	}

	// The user turn goes into history before the network call, so a
	// retry or a concurrent reader sees the attempted turn.
	userMsg := message.UserMessage(text)
	sess.Append(userMsg)

	body, err := o.Backend.ChatStream(ctx, token, sess.History())
	if err != nil {
		return o.failTurn(sess, err.Error(), start)
	}

	res := stream.Decode(ctx, body)
	body.Close()
	log.LogStreamDone(sess.ID, time.Since(start), len(res.TextParts), len(res.ToolCalls))

	if res.Failed() {
		return o.failTurn(sess, res.Err, start)
	}

	// Only the text survives into history: tool parts are not safe to
	// replay on the next turn.
	assistantMsg := message.AssistantMessage(res.Text())
	sess.Append(assistantMsg)

	result := agent.Synthesize(sess.ID, text, res.Text(), res.ToolResults)
	sess.LastResult = result
	o.Sessions.Persist(sess)

	if o.SyncRemote {
		o.Backend.AppendMessages(ctx, token, sess.ID, []message.Message{userMsg, assistantMsg})
	}

	meta := metaAt(start)
	meta.TokensUsed = res.Usage.Total()
	// Ordered per-call names, duplicates preserved: two calls to the
	// same tool were two calls.
	for _, tc := range res.ToolCalls {
		meta.ToolsCalled = append(meta.ToolsCalled, tc.Name)
	}
	return result, meta
}

// GetDetail fetches the full profile behind entry index (1-based) of
// the session's last search result. The local checks run before any
// network access.
func (o *Orchestrator) GetDetail(ctx context.Context, sessionID string, index int) (agent.Result, agent.Meta) {
	start := time.Now()

	sess, ok := o.Sessions.Get(sessionID)
	if !ok {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   fmt.Sprintf("session not found: %s", sessionID),
			Code:      agent.CodeSessionNotFound,
		}, metaAt(start)
	}

	search, ok := sess.LastResult.(agent.SearchResult)
	if !ok {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   "no search result to pick from; run a search first",
			Code:      agent.CodeSessionNotFound,
		}, metaAt(start)
	}

	if index < 1 || index > len(search.Profiles) {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   fmt.Sprintf("result %d does not exist; the last search returned %d profiles", index, len(search.Profiles)),
			Code:      agent.CodeIndexOutOfRange,
		}, metaAt(start)
	}

	token, err := o.Auth.GetValidToken(ctx)
	if err != nil {
		return agent.ErrorResult{
			SessionID: sessionID,
			Message:   err.Error(),
			Code:      agent.CodeAuthError,
		}, metaAt(start)
	}

	profile, err := o.Backend.ProfileDetail(ctx, token, search.Profiles[index-1].ID)
	if err != nil {
		return o.failTurn(sess, err.Error(), start)
	}

	result := agent.DetailResult{
		SessionID: sess.ID,
		Profile:   *profile,
		Summary:   fmt.Sprintf("Details for %s", profile.Name),
	}
	sess.LastResult = result
	o.Sessions.Persist(sess)
	return result, metaAt(start)
}

// failTurn records a failed turn as the session's last result and
// returns it with zero-valued meta apart from elapsed time.
func (o *Orchestrator) failTurn(sess *session.Session, msg string, start time.Time) (agent.Result, agent.Meta) {
	result := agent.ErrorResult{
		SessionID: sess.ID,
		Message:   msg,
		Code:      agent.Classify(msg),
	}
	sess.LastResult = result
	o.Sessions.Persist(sess)
	return result, metaAt(start)
}

func metaAt(start time.Time) agent.Meta {
	return agent.Meta{DurationMs: time.Since(start).Milliseconds()}
}
