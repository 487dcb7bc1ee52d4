package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/lassoai/lasso-cli/internal/agent"
)

// toolDefinition describes one tool in tools/list.
type toolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

func toolDefinitions() []toolDefinition {
	return []toolDefinition{
		{
			Name:        "search",
			Description: "Search for people with a natural-language query. Pass session_id to continue a conversation and refine earlier results.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":      map[string]any{"type": "string", "description": "Natural-language search query"},
					"session_id": map[string]any{"type": "string", "description": "Session id from a previous search, for follow-up queries"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "get_profile_detail",
			Description: "Fetch the full profile behind entry N (1-based) of the session's last search result.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string"},
					"index":      map[string]any{"type": "integer", "minimum": 1},
				},
				"required": []string{"session_id", "index"},
			},
		},
	}
}

// toolCallParams is the params shape of a tools/call request.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolCall(ctx context.Context, req *jsonrpcRequest) {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, "invalid tool call params")
		return
	}

	var result agent.Result
	switch params.Name {
	case "search":
		var args struct {
			Query     string `json:"query"`
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			s.writeError(req.ID, codeInvalidParams, "invalid search arguments")
			return
		}
		result, _ = s.orchestrator.Query(ctx, args.Query, args.SessionID)
	case "get_profile_detail":
		var args struct {
			SessionID string `json:"session_id"`
			Index     int    `json:"index"`
		}
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			s.writeError(req.ID, codeInvalidParams, "invalid detail arguments")
			return
		}
		result, _ = s.orchestrator.GetDetail(ctx, args.SessionID, args.Index)
	default:
		s.writeError(req.ID, codeInvalidParams, "unknown tool: "+params.Name)
		return
	}

	s.writeResult(req.ID, toolCallResult(result))
}

// toolCallResult renders an AgentResult as MCP tool content. Errors
// travel in-band via isError, never as JSON-RPC failures, so the
// calling model can read them.
func toolCallResult(result agent.Result) map[string]any {
	data, err := agent.MarshalResult(result)
	if err != nil {
		data = []byte(`{"error":"failed to encode result"}`)
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(data)},
		},
		"isError": result != nil && result.Kind() == agent.KindError,
	}
}
