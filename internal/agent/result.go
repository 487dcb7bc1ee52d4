// Package agent defines the typed results a conversation turn produces
// and the pure logic that derives them from raw tool outputs. It has no
// I/O; the core package drives it.
package agent

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the Result union.
type Kind string

const (
	KindSearch Kind = "search"
	KindDetail Kind = "detail"
	KindError  Kind = "error"
)

// Result is the discriminated outcome of one turn. Exactly one variant
// is produced per turn, never a partially populated mix.
type Result interface {
	Kind() Kind
	sealed()
}

// ProfileSummary is one hit in a search result.
type ProfileSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Headline string   `json:"headline,omitempty"`
	Location string   `json:"location,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	Score    float64  `json:"score,omitempty"`
}

// Experience is one position in a detailed profile.
type Experience struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	Period  string `json:"period,omitempty"`
}

// DetailedProfile is the full record behind a search hit.
type DetailedProfile struct {
	ProfileSummary
	About      string            `json:"about,omitempty"`
	Experience []Experience      `json:"experience,omitempty"`
	Links      map[string]string `json:"links,omitempty"`
	Contact    string            `json:"contact,omitempty"`
}

// SearchResult is a list of matching profiles plus the model's summary.
type SearchResult struct {
	SessionID      string           `json:"sessionId"`
	Query          string           `json:"query"`
	Profiles       []ProfileSummary `json:"profiles"`
	TotalMatches   int              `json:"totalMatches"`
	Summary        string           `json:"summary"`
	AppliedFilters map[string]any   `json:"appliedFilters,omitempty"`
}

// DetailResult is a single fully hydrated profile.
type DetailResult struct {
	SessionID string          `json:"sessionId"`
	Profile   DetailedProfile `json:"profile"`
	Summary   string          `json:"summary"`
}

// ErrorResult reports a failed turn.
type ErrorResult struct {
	SessionID string    `json:"sessionId"`
	Message   string    `json:"error"`
	Code      ErrorCode `json:"code,omitempty"`
}

func (SearchResult) Kind() Kind { return KindSearch }
func (DetailResult) Kind() Kind { return KindDetail }
func (ErrorResult) Kind() Kind  { return KindError }

func (SearchResult) sealed() {}
func (DetailResult) sealed() {}
func (ErrorResult) sealed()  {}

// Meta describes a turn without being part of its result. It is derived
// per call and never persisted.
type Meta struct {
	DurationMs  int64    `json:"durationMs"`
	TokensUsed  int      `json:"tokensUsed"`
	ToolsCalled []string `json:"toolsCalled"`
}

// resultEnvelope wraps a Result for serialization with its kind tag.
type resultEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalResult serializes a Result with its discriminator so it can be
// restored by UnmarshalResult. A nil result marshals to JSON null.
func MarshalResult(r Result) ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return json.Marshal(resultEnvelope{Kind: r.Kind(), Data: data})
}

// UnmarshalResult restores a Result from its tagged form.
func UnmarshalResult(data []byte) (Result, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env resultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse result envelope: %w", err)
	}
	switch env.Kind {
	case KindSearch:
		var r SearchResult
		if err := json.Unmarshal(env.Data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse search result: %w", err)
		}
		return r, nil
	case KindDetail:
		var r DetailResult
		if err := json.Unmarshal(env.Data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse detail result: %w", err)
		}
		return r, nil
	case KindError:
		var r ErrorResult
		if err := json.Unmarshal(env.Data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse error result: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown result kind: %q", env.Kind)
	}
}
