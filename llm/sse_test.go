package llm

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collectChunks(t *testing.T, body string) []Chunk {
	t.Helper()
	var got []Chunk
	err := decodeSSEStream(strings.NewReader(body), discardLogger(), func(c Chunk) {
		got = append(got, c)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func TestDecodeStreamDeltasThenDone(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"Hel"}}]}

data: {"choices":[{"delta":{"content":"lo "}}]}

data: {"choices":[{"delta":{"content":"there"}}]}

data: [DONE]
`
	got := collectChunks(t, body)

	if len(got) != 4 {
		t.Fatalf("expected 4 chunks (3 content + done), got %d", len(got))
	}
	var text strings.Builder
	for _, c := range got[:3] {
		if c.Done || c.Err != nil {
			t.Fatalf("unexpected terminator before [DONE]: %+v", c)
		}
		text.WriteString(c.Content)
	}
	if text.String() != "Hello there" {
		t.Errorf("expected assembled text 'Hello there', got %q", text.String())
	}
	if !got[3].Done {
		t.Error("expected final chunk to have Done=true")
	}
}

func TestDecodeStreamSkipsMalformedLines(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"ok"}}]}

data: {not json at all

data: [DONE]
`
	got := collectChunks(t, body)

	if len(got) != 2 {
		t.Fatalf("expected malformed line to be skipped, got %d chunks", len(got))
	}
	if got[0].Content != "ok" || !got[1].Done {
		t.Errorf("unexpected chunks: %+v", got)
	}
}

func TestDecodeStreamIgnoresCommentsAndBlankLines(t *testing.T) {
	body := `: keep-alive

data: {"choices":[{"delta":{"content":"x"}}]}

data: [DONE]
`
	got := collectChunks(t, body)
	if len(got) != 2 || got[0].Content != "x" {
		t.Errorf("unexpected chunks: %+v", got)
	}
}

func TestDecodeStreamEOFWithoutMarker(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"x"}}]}
`
	got := collectChunks(t, body)
	if len(got) != 2 || !got[1].Done {
		t.Errorf("expected done terminator on clean EOF, got %+v", got)
	}
}

func TestDecodeStreamStopsAtDone(t *testing.T) {
	// Content after [DONE] must not be forwarded.
	body := `data: [DONE]

data: {"choices":[{"delta":{"content":"late"}}]}
`
	got := collectChunks(t, body)
	if len(got) != 1 || !got[0].Done {
		t.Errorf("expected a single done chunk, got %+v", got)
	}
}
