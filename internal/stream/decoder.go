// Package stream decodes the chat endpoint's incremental response into
// typed events. The backend speaks one of two wire dialects depending on
// its version: legacy type-coded lines ("0:\"hi\"") or Server-Sent Events
// ("data: {\"type\":\"text-delta\",...}"). Framing is detected per line,
// so a decoder instance handles either dialect without configuration.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"strings"
)

// doneSentinel terminates an SSE response body.
const doneSentinel = "[DONE]"

// Legacy dialect type codes.
const (
	codeText       = "0"
	codeError      = "3"
	codeToolCall   = "9"
	codeToolResult = "a"
	codeFinish     = "d"
	codeStepFinish = "e"
)

// ToolCall is a tool invocation announced by the model.
type ToolCall struct {
	ID   string          `json:"toolCallId"`
	Name string          `json:"toolName"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolResult is the output of a tool invocation, correlated by call id.
type ToolResult struct {
	CallID   string          `json:"toolCallId"`
	ToolName string          `json:"toolName"`
	Output   json.RawMessage `json:"output"`
}

// Usage is token accounting reported by finish events.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Result accumulates everything one decoded turn produced.
type Result struct {
	TextParts   []string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
	Err         string
	Usage       Usage
}

// Text joins the accumulated text deltas.
func (r *Result) Text() string {
	return strings.Join(r.TextParts, "")
}

// Failed reports whether the stream carried a protocol-level error or
// the underlying read failed.
func (r *Result) Failed() bool {
	return r.Err != ""
}

// decoder holds per-stream state: the rolling line buffer and the
// call-id to tool-name map used to label tool results.
type decoder struct {
	result Result
	names  map[string]string
}

// Decode consumes the reader until EOF and returns the accumulated
// result. Chunk boundaries are arbitrary: a line split across reads is
// held back until completed. Malformed lines are skipped, never fatal.
// A read error terminates decoding and is reported via Result.Err;
// retrying is the caller's concern.
func Decode(ctx context.Context, r io.Reader) *Result {
	d := &decoder{names: make(map[string]string)}

	var pending string
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			d.result.Err = err.Error()
			return &d.result
		}
		n, err := r.Read(buf)
		if n > 0 {
			pending += string(buf[:n])
			for {
				idx := strings.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				d.processLine(pending[:idx], false)
				pending = pending[idx+1:]
			}
		}
		if err != nil {
			if err != io.EOF {
				d.result.Err = err.Error()
				return &d.result
			}
			break
		}
	}

	// Best-effort flush of a trailing fragment that never got its
	// newline. Only text deltas are honored here: other event types
	// need exact line boundaries we cannot guarantee for partial data.
	if pending != "" {
		d.processLine(pending, true)
	}

	return &d.result
}

// processLine routes one complete line. Lines that match neither
// framing, carry the terminator sentinel, or hold unparseable JSON are
// discarded without touching accumulated state.
func (d *decoder) processLine(line string, textOnly bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}

	if payload, ok := strings.CutPrefix(line, "data:"); ok {
		payload = strings.TrimSpace(payload)
		if payload == "" || payload == doneSentinel {
			return
		}
		d.processSSE(payload, textOnly)
		return
	}

	code, payload, ok := strings.Cut(line, ":")
	if !ok || !isTypeCode(code) {
		return
	}
	d.processLegacy(code, payload, textOnly)
}

// processSSE handles one "data: {...}" payload, routed by its type tag.
func (d *decoder) processSSE(payload string, textOnly bool) {
	var ev struct {
		Type       string          `json:"type"`
		Delta      string          `json:"delta"`
		Text       string          `json:"text"`
		ToolCallID string          `json:"toolCallId"`
		ToolName   string          `json:"toolName"`
		Input      json.RawMessage `json:"input"`
		Output     json.RawMessage `json:"output"`
		ErrorText  string          `json:"errorText"`
		Usage      *Usage          `json:"usage"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return
	}

	switch ev.Type {
	case "text-delta":
		text := ev.Delta
		if text == "" {
			text = ev.Text
		}
		d.appendText(text)
	case "tool-call", "tool-input-available":
		if textOnly {
			return
		}
		d.addToolCall(ToolCall{ID: ev.ToolCallID, Name: ev.ToolName, Args: ev.Input})
	case "tool-result", "tool-output-available":
		if textOnly {
			return
		}
		d.addToolResult(ev.ToolCallID, ev.Output)
	case "error":
		if textOnly {
			return
		}
		d.result.Err = ev.ErrorText
	case "finish", "finish-step":
		if textOnly {
			return
		}
		if ev.Usage != nil {
			d.result.Usage = *ev.Usage
		}
	default:
		// Lifecycle and progress markers: no state change.
	}
}

// processLegacy handles one legacy "CODE:JSON" line.
func (d *decoder) processLegacy(code, payload string, textOnly bool) {
	switch code {
	case codeText:
		var text string
		if err := json.Unmarshal([]byte(payload), &text); err != nil {
			return
		}
		d.appendText(text)
	case codeToolCall:
		if textOnly {
			return
		}
		var tc ToolCall
		if err := json.Unmarshal([]byte(payload), &tc); err != nil {
			return
		}
		d.addToolCall(tc)
	case codeToolResult:
		if textOnly {
			return
		}
		var tr struct {
			ToolCallID string          `json:"toolCallId"`
			Result     json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal([]byte(payload), &tr); err != nil {
			return
		}
		d.addToolResult(tr.ToolCallID, tr.Result)
	case codeError:
		if textOnly {
			return
		}
		var msg string
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return
		}
		// Last write wins when the backend emits multiple errors.
		d.result.Err = msg
	case codeFinish, codeStepFinish:
		if textOnly {
			return
		}
		var fin struct {
			Usage *Usage `json:"usage"`
		}
		if err := json.Unmarshal([]byte(payload), &fin); err != nil {
			return
		}
		if fin.Usage != nil {
			d.result.Usage = *fin.Usage
		}
	}
}

func (d *decoder) appendText(text string) {
	if text == "" {
		return
	}
	d.result.TextParts = append(d.result.TextParts, text)
}

func (d *decoder) addToolCall(tc ToolCall) {
	d.names[tc.ID] = tc.Name
	d.result.ToolCalls = append(d.result.ToolCalls, tc)
}

func (d *decoder) addToolResult(callID string, output json.RawMessage) {
	name, ok := d.names[callID]
	if !ok {
		// A result can precede its call when upstream buffering reorders
		// lines. There is no way to recover the name at this point, so the
		// correlation failure is recorded rather than dropped.
		name = "unknown"
	}
	d.result.ToolResults = append(d.result.ToolResults, ToolResult{
		CallID:   callID,
		ToolName: name,
		Output:   output,
	})
}

// isTypeCode reports whether s looks like a legacy dialect type code:
// one or two lowercase hex-ish characters before the first colon.
func isTypeCode(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
