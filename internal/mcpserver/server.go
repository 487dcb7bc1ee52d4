// Package mcpserver exposes Lasso as a Model Context Protocol tool
// server over stdio, so MCP-capable agents can run searches through
// the same orchestrator the CLI uses.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/lassoai/lasso-cli/internal/core"
	"github.com/lassoai/lasso-cli/internal/log"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes used by this server.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// jsonrpcRequest represents a JSON-RPC 2.0 request. The id is kept raw
// because clients may send numbers or strings.
type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// jsonrpcResponse represents a JSON-RPC 2.0 response.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

// jsonrpcError represents a JSON-RPC 2.0 error.
type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server is a line-delimited JSON-RPC server over a reader/writer pair
// (stdin/stdout in production).
type Server struct {
	orchestrator *core.Orchestrator

	mu  sync.Mutex
	out io.Writer
}

// New creates an MCP server backed by the orchestrator.
func New(o *core.Orchestrator) *Server {
	return &Server{orchestrator: o}
}

// Serve reads requests until EOF or context cancellation. Malformed
// lines produce a parse error response; they never stop the server.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, codeParseError, "parse error")
			continue
		}
		s.handle(ctx, &req)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request stream: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, req *jsonrpcRequest) {
	// Notifications (no id) get no response.
	isNotification := len(req.ID) == 0

	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "lasso", "version": "0.1.0"},
		})
	case "notifications/initialized":
		// Client handshake complete; nothing to do.
	case "ping":
		s.writeResult(req.ID, map[string]any{})
	case "tools/list":
		s.writeResult(req.ID, map[string]any{"tools": toolDefinitions()})
	case "tools/call":
		s.handleToolCall(ctx, req)
	default:
		if !isNotification {
			s.writeError(req.ID, codeMethodNotFound, "method not found: "+req.Method)
		}
	}
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	s.write(jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, msg string) {
	s.write(jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: &jsonrpcError{Code: code, Message: msg}})
}

func (s *Server) write(resp jsonrpcResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(resp)
	if err != nil {
		log.LogError("mcp", err)
		return
	}
	data = append(data, '\n')
	if _, err := s.out.Write(data); err != nil {
		log.LogError("mcp", err)
	}
}
