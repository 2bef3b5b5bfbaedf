// Server-sent-event parsing for OpenAI-compatible streaming responses.
//
// The byte stream is parsed line by line: each "data:" line holds either a
// JSON chunk with an incremental content delta or the "[DONE]" terminator.
// Malformed payload lines are logged and skipped, never fatal to the stream.

package llm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maxSSELineSize bounds a single SSE line. The default bufio.Scanner limit of
// 64 KiB is too small for long completions.
const maxSSELineSize = 1 * 1024 * 1024

const sseDoneMarker = "[DONE]"

// streamDelta mirrors one OpenAI-compatible streaming chunk.
type streamDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// decodeSSEStream reads an event stream from r, forwarding each content delta
// to emit and finishing with a single Done chunk when the [DONE] marker (or a
// clean end of stream) is reached. Returns an error only for transport-level
// read failures; in that case no terminator is emitted.
func decodeSSEStream(r io.Reader, log *slog.Logger, emit ChunkFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)

		if payload == sseDoneMarker {
			emit(Chunk{Done: true})
			return nil
		}

		var delta streamDelta
		if err := json.Unmarshal([]byte(payload), &delta); err != nil {
			log.Warn("skipping malformed stream line", "error", err)
			continue
		}
		if len(delta.Choices) > 0 {
			if content := delta.Choices[0].Delta.Content; content != "" {
				emit(Chunk{Content: content})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}

	// Stream closed without an explicit terminator; treat as complete.
	emit(Chunk{Done: true})
	return nil
}
