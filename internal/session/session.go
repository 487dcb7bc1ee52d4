// Package session owns per-session conversation state: the in-process
// cache, file persistence, and hydration from server-backed sessions.
package session

import (
	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/message"
)

// Session is the unit of conversational continuity. Every turn sends
// the session's full accumulated history to the backend; there is no
// truncation or windowing, which is a known scalability limitation of
// the current protocol rather than an oversight here.
type Session struct {
	ID         string            `json:"id"`
	Messages   []message.Message `json:"messages"`
	LastResult agent.Result      `json:"-"`
}

// Append adds a message to the session's history.
func (s *Session) Append(msg message.Message) {
	s.Messages = append(s.Messages, msg)
}

// History returns the messages to send on the next turn, filtered to
// text parts only: the backend rejects replayed tool parts.
func (s *Session) History() []message.Message {
	out := make([]message.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		filtered := m.TextOnly()
		if len(filtered.Parts) == 0 {
			continue
		}
		out = append(out, filtered)
	}
	return out
}
