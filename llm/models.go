// Package llm provides shared data models for LLM providers.
package llm

// Message roles. Conversation history stored by the surrounding system uses
// RoleBot for assistant turns; it is mapped to RoleAssistant before dispatch.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleBot       = "bot"
)

// Message represents a single chat message with role and content.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Options carries the per-request generation parameters. A fresh Options value
// is supplied on every call; providers never mutate it or retain it between
// requests. Zero values fall back to the provider's defaults.
type Options struct {
	// Model overrides the provider's default model when non-empty.
	Model string
	// Temperature is the sampling temperature in [0, 1].
	Temperature float32
	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// Usage contains token usage statistics for one completion.
type Usage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// Reply is the result of a buffered completion.
type Reply struct {
	// Content is the assistant's reply text.
	Content string
	// Model is the model that produced the reply.
	Model string
	// Usage is nil when the vendor did not report token counts.
	Usage *Usage
}

// Chunk is one unit of a streamed completion delivered to the caller's sink.
// A stream consists of zero or more content chunks followed by exactly one
// terminator: either Done=true or Err non-nil, never both.
type Chunk struct {
	Content string
	Done    bool
	Err     error
}

// ChunkFunc is the caller-supplied sink for streamed chunks.
type ChunkFunc func(Chunk)
