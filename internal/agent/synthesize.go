package agent

import (
	"encoding/json"

	"github.com/lassoai/lasso-cli/internal/stream"
)

// Tool names the backend's model invokes. Detail beats search beats
// table search when multiple outputs land in one turn.
const (
	ToolProfileDetail = "get_profile_detail"
	ToolProfileSearch = "search_profiles"
	ToolTableSearch   = "search_table"
)

// fallbackSummary is used when a turn produced neither tool output nor text.
const fallbackSummary = "I couldn't find anything for that. Try rephrasing your query."

// detailOutput is the wire shape of a detail tool's output. The success
// flag is explicit: an unsuccessful or profile-less detail output falls
// through to the next priority tier instead of producing a result.
type detailOutput struct {
	Success bool             `json:"success"`
	Profile *DetailedProfile `json:"profile"`
}

// searchOutput is the wire shape of search and table-search outputs.
type searchOutput struct {
	Profiles       []ProfileSummary `json:"profiles"`
	TotalMatches   int              `json:"totalMatches"`
	Summary        string           `json:"summary"`
	AppliedFilters map[string]any   `json:"appliedFilters"`
}

// Synthesize converts one turn's text and ordered tool outputs into
// exactly one Result. Pure: no I/O, no session mutation. Priority:
// successful detail > search > table search > text-only fallback. The
// fallback is still a SearchResult with zero profiles — a turn always
// yields a result.
func Synthesize(sessionID, query, text string, outputs []stream.ToolResult) Result {
	for _, out := range outputs {
		if out.ToolName != ToolProfileDetail {
			continue
		}
		var d detailOutput
		if err := json.Unmarshal(out.Output, &d); err != nil {
			continue
		}
		if !d.Success || d.Profile == nil {
			continue
		}
		return DetailResult{
			SessionID: sessionID,
			Profile:   *d.Profile,
			Summary:   text,
		}
	}

	if r, ok := searchFrom(sessionID, query, text, outputs, ToolProfileSearch); ok {
		return r
	}
	if r, ok := searchFrom(sessionID, query, text, outputs, ToolTableSearch); ok {
		return r
	}

	summary := text
	if summary == "" {
		summary = fallbackSummary
	}
	return SearchResult{
		SessionID: sessionID,
		Query:     query,
		Profiles:  []ProfileSummary{},
		Summary:   summary,
	}
}

// searchFrom builds a SearchResult from the first output of the named
// tool, if any.
func searchFrom(sessionID, query, text string, outputs []stream.ToolResult, tool string) (SearchResult, bool) {
	for _, out := range outputs {
		if out.ToolName != tool {
			continue
		}
		var s searchOutput
		if err := json.Unmarshal(out.Output, &s); err != nil {
			continue
		}
		summary := s.Summary
		if summary == "" {
			summary = text
		}
		profiles := s.Profiles
		if profiles == nil {
			profiles = []ProfileSummary{}
		}
		total := s.TotalMatches
		if total == 0 {
			total = len(profiles)
		}
		return SearchResult{
			SessionID:      sessionID,
			Query:          query,
			Profiles:       profiles,
			TotalMatches:   total,
			Summary:        summary,
			AppliedFilters: s.AppliedFilters,
		}, true
	}
	return SearchResult{}, false
}
