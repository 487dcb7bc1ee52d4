// Package message defines the canonical conversation types used across the codebase.
// All packages import from here to avoid circular dependencies.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType discriminates the members of the Part union.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// Part is one element of a message body. Exactly one of the payload
// field groups is populated, selected by Type.
type Part struct {
	Type PartType `json:"type"`

	// PartText
	Text string `json:"text,omitempty"`

	// PartToolCall
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`

	// PartToolResult (shares ToolCallID/ToolName with PartToolCall)
	Output json.RawMessage `json:"output,omitempty"`
}

// Message represents a chat message exchanged between user and assistant.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ToolCallPart creates a tool-call part.
func ToolCallPart(callID, name string, args json.RawMessage) Part {
	return Part{Type: PartToolCall, ToolCallID: callID, ToolName: name, Args: args}
}

// ToolResultPart creates a tool-result part.
func ToolResultPart(callID, name string, output json.RawMessage) Part {
	return Part{Type: PartToolResult, ToolCallID: callID, ToolName: name, Output: output}
}

// UserMessage creates a user message with a single text part.
func UserMessage(text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  RoleUser,
		Parts: []Part{TextPart(text)},
	}
}

// AssistantMessage creates an assistant message with a single text part.
func AssistantMessage(text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  RoleAssistant,
		Parts: []Part{TextPart(text)},
	}
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// TextOnly returns a copy of the message containing only its text parts.
// The backend rejects replayed tool parts on subsequent turns, so
// messages must be filtered through this before being resent.
func (m Message) TextOnly() Message {
	parts := make([]Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Type == PartText {
			parts = append(parts, p)
		}
	}
	return Message{ID: m.ID, Role: m.Role, Parts: parts}
}

// Validate checks that every part carries the payload its type requires.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("invalid role: %q", m.Role)
	}
	for i, p := range m.Parts {
		switch p.Type {
		case PartText:
		case PartToolCall, PartToolResult:
			if p.ToolCallID == "" {
				return fmt.Errorf("part %d: %s part missing toolCallId", i, p.Type)
			}
		default:
			return fmt.Errorf("part %d: unknown part type %q", i, p.Type)
		}
	}
	return nil
}
