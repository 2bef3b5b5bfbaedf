// Package llmjson extracts JSON objects from LLM reply text.
//
// Models asked for structured output still wrap it in prose or markdown
// fences often enough that parsing must be treated as a fallible step. This
// package peels off the common wrappers and unmarshals whatever object is
// left; callers decide what to do when extraction fails.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Unmarshal extracts the JSON object embedded in text and unmarshals it into
// T. Handled shapes, in order:
//  1. the whole text is valid JSON
//  2. JSON inside a markdown code fence (```json ... ``` or ``` ... ```)
//  3. an object embedded in prose, located by first '{' / last '}'
//
// Limited to objects; brace scanning is not a full parser and can fail on
// unbalanced braces inside string values.
func Unmarshal[T any](text string) (T, error) {
	var result T
	raw, err := locate(text)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("unmarshaling extracted JSON: %w", err)
	}
	return result, nil
}

// locate returns the JSON portion of text, or an error with a short preview
// of the text when nothing parseable is found.
func locate(text string) (string, error) {
	text = stripFences(text)

	var probe any
	if json.Unmarshal([]byte(text), &probe) == nil {
		return text, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Unmarshal([]byte(candidate), &probe) == nil {
			return candidate, nil
		}
	}

	preview := text
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no JSON object found in response: %q", preview)
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	return trimmed
}
