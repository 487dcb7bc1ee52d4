package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunked returns a reader that delivers each chunk from a separate Read call.
func chunked(chunks ...string) io.Reader {
	readers := make([]io.Reader, len(chunks))
	for i, c := range chunks {
		readers[i] = strings.NewReader(c)
	}
	return io.MultiReader(readers...)
}

func TestDecodeLegacyTextDeltas(t *testing.T) {
	res := Decode(context.Background(), chunked("0:\"Hello\"\n", "0:\" world\"\n"))

	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if len(res.TextParts) != 2 || res.TextParts[0] != "Hello" || res.TextParts[1] != " world" {
		t.Errorf("expected [Hello, ' world'], got %v", res.TextParts)
	}
	if res.Text() != "Hello world" {
		t.Errorf("expected joined text, got %q", res.Text())
	}
}

func TestDecodeSplitAtEveryByteOffset(t *testing.T) {
	input := "0:\"Hel\"\n" +
		"9:{\"toolCallId\":\"c1\",\"toolName\":\"profile_search\",\"args\":{\"q\":\"go\"}}\n" +
		"a:{\"toolCallId\":\"c1\",\"result\":{\"profiles\":[]}}\n" +
		"0:\"lo\"\n" +
		"d:{\"usage\":{\"promptTokens\":10,\"completionTokens\":4}}\n"

	want := Decode(context.Background(), strings.NewReader(input))
	if want.Failed() {
		t.Fatalf("baseline decode failed: %s", want.Err)
	}

	for off := 0; off <= len(input); off++ {
		got := Decode(context.Background(), chunked(input[:off], input[off:]))

		if got.Text() != want.Text() {
			t.Fatalf("offset %d: text %q != %q", off, got.Text(), want.Text())
		}
		if len(got.ToolCalls) != len(want.ToolCalls) {
			t.Fatalf("offset %d: %d tool calls, want %d", off, len(got.ToolCalls), len(want.ToolCalls))
		}
		if len(got.ToolResults) != len(want.ToolResults) {
			t.Fatalf("offset %d: %d tool results, want %d", off, len(got.ToolResults), len(want.ToolResults))
		}
		if got.ToolResults[0].ToolName != "profile_search" {
			t.Fatalf("offset %d: tool result name %q", off, got.ToolResults[0].ToolName)
		}
		if got.Usage.Total() != 14 {
			t.Fatalf("offset %d: usage %d, want 14", off, got.Usage.Total())
		}
	}
}

func TestDecodeMalformedLinesAreSkipped(t *testing.T) {
	input := "0:\"keep\"\n" +
		"0:{not json\n" +
		"garbage line without framing\n" +
		"data: {broken json}\n" +
		"0:\"also kept\"\n"

	res := Decode(context.Background(), strings.NewReader(input))

	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if len(res.TextParts) != 2 || res.TextParts[0] != "keep" || res.TextParts[1] != "also kept" {
		t.Errorf("expected valid lines extracted in order, got %v", res.TextParts)
	}
}

func TestDecodeSSEDialect(t *testing.T) {
	input := "data: {\"type\":\"text-delta\",\"delta\":\"Found \"}\n" +
		"data: {\"type\":\"text-delta\",\"delta\":\"3 matches\"}\n" +
		"data: {\"type\":\"tool-input-available\",\"toolCallId\":\"t1\",\"toolName\":\"profile_search\",\"input\":{\"query\":\"rust\"}}\n" +
		"data: {\"type\":\"tool-output-available\",\"toolCallId\":\"t1\",\"output\":{\"total\":3}}\n" +
		"data: {\"type\":\"finish\",\"usage\":{\"promptTokens\":20,\"completionTokens\":9}}\n" +
		"data: [DONE]\n"

	res := Decode(context.Background(), strings.NewReader(input))

	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.Text() != "Found 3 matches" {
		t.Errorf("text = %q", res.Text())
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Name != "profile_search" {
		t.Errorf("tool calls = %+v", res.ToolCalls)
	}
	if len(res.ToolResults) != 1 || res.ToolResults[0].ToolName != "profile_search" {
		t.Errorf("tool results = %+v", res.ToolResults)
	}
	if res.Usage.Total() != 29 {
		t.Errorf("usage total = %d", res.Usage.Total())
	}
}

func TestDecodeToolResultForUnseenCall(t *testing.T) {
	input := "data: {\"type\":\"tool-output-available\",\"toolCallId\":\"x\",\"output\":{\"a\":1}}\n"

	res := Decode(context.Background(), strings.NewReader(input))

	if len(res.ToolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(res.ToolResults))
	}
	if res.ToolResults[0].ToolName != "unknown" {
		t.Errorf("expected fallback name 'unknown', got %q", res.ToolResults[0].ToolName)
	}
}

func TestDecodeEmptyStream(t *testing.T) {
	res := Decode(context.Background(), strings.NewReader(""))

	if res.Failed() {
		t.Errorf("unexpected error: %s", res.Err)
	}
	if len(res.TextParts) != 0 || len(res.ToolCalls) != 0 || len(res.ToolResults) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestDecodeTerminatorOnly(t *testing.T) {
	res := Decode(context.Background(), strings.NewReader("data: [DONE]\n"))

	if res.Failed() || len(res.TextParts) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestDecodeLastErrorWins(t *testing.T) {
	input := "3:\"first failure\"\n" +
		"3:\"second failure\"\n"

	res := Decode(context.Background(), strings.NewReader(input))

	if res.Err != "second failure" {
		t.Errorf("expected last error to win, got %q", res.Err)
	}
}

func TestDecodeTrailingFragmentTextOnly(t *testing.T) {
	// The final fragment has no newline: text deltas are still honored,
	// other event types are not.
	res := Decode(context.Background(), strings.NewReader("0:\"partial\""))
	if res.Text() != "partial" {
		t.Errorf("expected trailing text flush, got %q", res.Text())
	}

	res = Decode(context.Background(), strings.NewReader("9:{\"toolCallId\":\"c\",\"toolName\":\"n\"}"))
	if len(res.ToolCalls) != 0 {
		t.Errorf("trailing tool call should be discarded, got %+v", res.ToolCalls)
	}
}

type failingReader struct {
	data string
	read bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.read {
		f.read = true
		n := copy(p, f.data)
		return n, nil
	}
	return 0, errors.New("connection reset by peer")
}

func TestDecodeReadErrorSurfaces(t *testing.T) {
	res := Decode(context.Background(), &failingReader{data: "0:\"hi\"\n"})

	if res.Err != "connection reset by peer" {
		t.Errorf("expected read error surfaced, got %q", res.Err)
	}
	if res.Text() != "hi" {
		t.Errorf("text before failure should be kept, got %q", res.Text())
	}
}

func TestDecodeEmptyTextDeltaIgnored(t *testing.T) {
	res := Decode(context.Background(), strings.NewReader("0:\"\"\n0:\"x\"\n"))

	if len(res.TextParts) != 1 || res.TextParts[0] != "x" {
		t.Errorf("empty deltas should not be accumulated, got %v", res.TextParts)
	}
}
