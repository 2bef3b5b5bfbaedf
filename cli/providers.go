// Provider construction for CLI commands.
//
// Information Hiding:
// - Vendor constructor selection hidden
// - Credential lookup and retry wrapping hidden

package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukaanlabs/dukaanbot/config"
	"github.com/dukaanlabs/dukaanbot/llm"
)

// NewProvider builds the retry-wrapped provider for a configured vendor.
func NewProvider(name string, log *slog.Logger) (llm.Provider, error) {
	settings, err := config.New(name)
	if err != nil {
		return nil, err
	}
	canonical := settings.LLM.Provider

	apiKey, err := config.APIKeyFor(canonical)
	if err != nil {
		return nil, err
	}

	var inner llm.Provider
	switch canonical {
	case "openai":
		inner = llm.NewOpenAIProvider(apiKey, settings.LLM.Model)
	case "anthropic":
		inner = llm.NewAnthropicProvider(apiKey, settings.LLM.Model)
	case "deepseek":
		inner = llm.NewDeepSeekProvider(apiKey, settings.LLM.Model)
	case "gemini":
		inner = llm.NewGeminiProvider(apiKey, settings.LLM.Model)
	case "compat":
		baseURL, err := config.BaseURLFor(canonical)
		if err != nil {
			return nil, err
		}
		inner = llm.NewCompatProvider(baseURL, apiKey, settings.LLM.Model, log)
	default:
		return nil, fmt.Errorf("unknown provider: %q", canonical)
	}

	return llm.WithRetry(inner, llm.RetryConfig{Logger: log}), nil
}

// NewRegistry registers every provider whose credentials are present in
// the environment. defaultName is the fallback for unknown selections.
func NewRegistry(defaultName string, log *slog.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry(defaultName, log)

	registered := 0
	for _, name := range config.SupportedProviders() {
		p, err := NewProvider(name, log)
		if err != nil {
			log.Debug("provider not configured",
				slog.String("provider", name),
				slog.String("reason", err.Error()))
			continue
		}
		registry.Register(p)
		registered++
	}
	if registered == 0 {
		return nil, errors.New("no providers configured; set at least one API key (e.g. OPENAI_API_KEY)")
	}
	return registry, nil
}
