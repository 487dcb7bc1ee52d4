package message

import (
	"encoding/json"
	"testing"
)

func TestUserMessage(t *testing.T) {
	msg := UserMessage("hello")
	if msg.Role != RoleUser {
		t.Errorf("expected role %q, got %q", RoleUser, msg.Role)
	}
	if msg.ID == "" {
		t.Error("expected a generated message id")
	}
	if len(msg.Parts) != 1 || msg.Parts[0].Type != PartText {
		t.Fatalf("expected a single text part, got %v", msg.Parts)
	}
	if msg.Text() != "hello" {
		t.Errorf("expected text 'hello', got %q", msg.Text())
	}
}

func TestAssistantMessage(t *testing.T) {
	msg := AssistantMessage("hi there")
	if msg.Role != RoleAssistant {
		t.Errorf("expected role %q, got %q", RoleAssistant, msg.Role)
	}
	if msg.Text() != "hi there" {
		t.Errorf("expected text 'hi there', got %q", msg.Text())
	}
}

func TestTextConcatenatesTextPartsOnly(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart("found "),
			ToolCallPart("tc1", "search_profiles", json.RawMessage(`{"query":"engineers"}`)),
			TextPart("3 people"),
			ToolResultPart("tc1", "search_profiles", json.RawMessage(`{"success":true}`)),
		},
	}
	if msg.Text() != "found 3 people" {
		t.Errorf("expected 'found 3 people', got %q", msg.Text())
	}
}

func TestTextOnlyStripsToolParts(t *testing.T) {
	msg := Message{
		ID:   "m1",
		Role: RoleAssistant,
		Parts: []Part{
			TextPart("summary"),
			ToolCallPart("tc1", "search_profiles", json.RawMessage(`{}`)),
			ToolResultPart("tc1", "search_profiles", json.RawMessage(`{}`)),
		},
	}

	filtered := msg.TextOnly()
	if filtered.ID != "m1" || filtered.Role != RoleAssistant {
		t.Errorf("identity fields should survive filtering, got %+v", filtered)
	}
	if len(filtered.Parts) != 1 || filtered.Parts[0].Type != PartText {
		t.Fatalf("expected only the text part to survive, got %v", filtered.Parts)
	}
	// The original must not be mutated.
	if len(msg.Parts) != 3 {
		t.Errorf("TextOnly mutated the original message: %v", msg.Parts)
	}
}

func TestTextOnlyEmptyResult(t *testing.T) {
	msg := Message{
		Role:  RoleAssistant,
		Parts: []Part{ToolCallPart("tc1", "search_profiles", nil)},
	}
	if got := msg.TextOnly(); len(got.Parts) != 0 {
		t.Errorf("expected no parts, got %v", got.Parts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"user text", UserMessage("hello"), false},
		{"assistant text", AssistantMessage("hi"), false},
		{"system role", Message{Role: RoleSystem, Parts: []Part{TextPart("ctx")}}, false},
		{"tool call with id", Message{Role: RoleAssistant, Parts: []Part{
			ToolCallPart("tc1", "search_profiles", json.RawMessage(`{}`)),
		}}, false},
		{"invalid role", Message{Role: Role("moderator"), Parts: []Part{TextPart("x")}}, true},
		{"tool call missing id", Message{Role: RoleAssistant, Parts: []Part{
			{Type: PartToolCall, ToolName: "search_profiles"},
		}}, true},
		{"tool result missing id", Message{Role: RoleUser, Parts: []Part{
			{Type: PartToolResult, ToolName: "search_profiles"},
		}}, true},
		{"unknown part type", Message{Role: RoleUser, Parts: []Part{
			{Type: PartType("image")},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoleStringConversion(t *testing.T) {
	// Verify typed Role is comparable with string literals
	if string(RoleUser) != "user" {
		t.Errorf("RoleUser should be 'user', got %q", RoleUser)
	}
	if string(RoleAssistant) != "assistant" {
		t.Errorf("RoleAssistant should be 'assistant', got %q", RoleAssistant)
	}
}

func TestPartJSONRoundTrip(t *testing.T) {
	msg := Message{
		ID:   "m1",
		Role: RoleAssistant,
		Parts: []Part{
			TextPart("found them"),
			ToolCallPart("tc1", "get_profile_detail", json.RawMessage(`{"profile_id":"p9"}`)),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Parts[1].Type != PartToolCall || back.Parts[1].ToolCallID != "tc1" {
		t.Errorf("tool call part did not survive round trip: %+v", back.Parts[1])
	}
	if back.Text() != "found them" {
		t.Errorf("expected text 'found them', got %q", back.Text())
	}
}
