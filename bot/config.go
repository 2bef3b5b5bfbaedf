// Package bot implements the conversation orchestrator: per-turn dispatch
// between the inventory intent pipeline and the raw provider path.
//
// Information Hiding:
// - Provider selection, prompt synthesis, and template choice hidden here
// - Callers hand over history plus a per-turn Config and get a reply back
// - Each turn is an independent unit of work with no shared mutable state

package bot

import "github.com/dukaanlabs/dukaanbot/llm"

// DefaultCatalogScope isolates the catalog used when a configuration does
// not name its own scope.
const DefaultCatalogScope = "default"

// Config carries the per-turn chatbot configuration. It is read once at
// the start of a turn and never mutated; concurrent turns can share one
// value safely.
type Config struct {
	// Provider names the registered provider to use. Empty or unknown
	// names fall back to the registry default.
	Provider string

	// Model overrides the provider's default model when non-empty.
	Model string

	// Temperature in [0, 1].
	Temperature float32

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int

	// SystemPrompt overrides the synthesized system message when non-empty.
	SystemPrompt string

	// InventoryEnabled routes turns through the intent pipeline.
	InventoryEnabled bool

	// CatalogScope selects which catalog backs inventory turns.
	CatalogScope string
}

func (c Config) options() llm.Options {
	return llm.Options{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

func (c Config) scope() string {
	if c.CatalogScope == "" {
		return DefaultCatalogScope
	}
	return c.CatalogScope
}
