// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific wire protocols (JSON completion or SSE stream)
//
// Retry and error classification live one layer up (WithRetry, Classify) so
// every provider shares the same policy.

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide vendor-specific details while exposing a consistent
// interface for buffered and streamed chat completions.
type Provider interface {
	// Name returns the provider name (for routing/logging).
	Name() string

	// DefaultModel returns the model used when Options.Model is empty.
	DefaultModel() string

	// Generate sends one chat completion request and returns the full reply.
	Generate(ctx context.Context, messages []Message, opts Options) (Reply, error)

	// GenerateStream sends one chat completion request in streaming mode,
	// forwarding incremental content to emit. On success the final chunk has
	// Done=true. On failure GenerateStream returns the error without emitting
	// a terminator; the retry layer converts it into an inline Err chunk.
	GenerateStream(ctx context.Context, messages []Message, opts Options, emit ChunkFunc) error
}
