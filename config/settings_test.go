package config

import (
	"os"
	"testing"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewOllamaAlias(t *testing.T) {
	settings, err := New("ollama")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "compat" {
		t.Errorf("expected provider 'compat' (normalized from 'ollama'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewDefaults(t *testing.T) {
	for _, key := range []string{"LLM_MAX_TOKENS", "LLM_TEMPERATURE", "INVENTORY_ENABLED", "DUKAANBOT_DB", "CATALOG_SCOPE"} {
		original := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, original)
	}

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.MaxTokens != 1024 {
		t.Errorf("default max tokens = %d, want 1024", settings.LLM.MaxTokens)
	}
	if settings.LLM.Temperature != 0.7 {
		t.Errorf("default temperature = %v, want 0.7", settings.LLM.Temperature)
	}
	if !settings.Bot.InventoryEnabled {
		t.Error("inventory should default to enabled")
	}
	if settings.Store.Path != "dukaanbot.db" {
		t.Errorf("default db path = %q", settings.Store.Path)
	}
	if settings.Bot.CatalogScope != "default" {
		t.Errorf("default catalog scope = %q", settings.Bot.CatalogScope)
	}
}

func TestTemperatureOutOfRange(t *testing.T) {
	original := os.Getenv("LLM_TEMPERATURE")
	os.Setenv("LLM_TEMPERATURE", "1.5")
	defer os.Setenv("LLM_TEMPERATURE", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for temperature above 1")
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Setenv("OPENAI_API_KEY", original)

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestAPIKeyOptionalForCompat(t *testing.T) {
	original := os.Getenv("COMPAT_API_KEY")
	os.Unsetenv("COMPAT_API_KEY")
	defer os.Setenv("COMPAT_API_KEY", original)

	key, err := APIKeyFor("compat")
	if err != nil {
		t.Fatalf("compat key must be optional, got error: %v", err)
	}
	if key != "" {
		t.Errorf("expected empty key, got %q", key)
	}
}

func TestAPIKeyForUnknownProvider(t *testing.T) {
	_, err := APIKeyFor("unknown")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestModelFor(t *testing.T) {
	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model == "" {
		t.Error("expected non-empty model")
	}
}

func TestBaseURLForCompat(t *testing.T) {
	original := os.Getenv("COMPAT_BASE_URL")
	os.Setenv("COMPAT_BASE_URL", "http://localhost:11434/v1")
	defer os.Setenv("COMPAT_BASE_URL", original)

	url, err := BaseURLFor("compat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://localhost:11434/v1" {
		t.Errorf("unexpected url %q", url)
	}
}

func TestBaseURLForCompatMissing(t *testing.T) {
	original := os.Getenv("COMPAT_BASE_URL")
	os.Unsetenv("COMPAT_BASE_URL")
	defer os.Setenv("COMPAT_BASE_URL", original)

	_, err := BaseURLFor("compat")
	if err == nil {
		t.Error("expected error when COMPAT_BASE_URL is unset")
	}
}

func TestBaseURLForFixedProvider(t *testing.T) {
	url, err := BaseURLFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "" {
		t.Errorf("fixed-endpoint provider should return empty url, got %q", url)
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	original := os.Getenv("LLM_MAX_TOKENS")
	os.Setenv("LLM_MAX_TOKENS", "not-a-number")
	defer os.Setenv("LLM_MAX_TOKENS", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid LLM_MAX_TOKENS")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew("unknown_provider")
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) == 0 {
		t.Error("expected at least one supported provider")
	}
}
