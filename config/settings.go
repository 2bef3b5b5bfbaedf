// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	LLM   LLMConfig
	Bot   BotConfig
	Store StoreConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float32
}

// BotConfig holds conversation behavior configuration.
type BotConfig struct {
	InventoryEnabled bool
	CatalogScope     string
	SystemPrompt     string
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
	baseURLEnv   string
	keyOptional  bool
}

// Supported providers and their configuration. The compat provider talks
// to any OpenAI-compatible endpoint (Ollama, vLLM, LM Studio) and can run
// without an API key.
var providers = map[string]providerInfo{
	"openai":    {modelEnv: "OPENAI_MODEL", defaultModel: "gpt-4o", apiKeyEnv: "OPENAI_API_KEY"},
	"anthropic": {modelEnv: "ANTHROPIC_MODEL", defaultModel: "claude-sonnet-4-20250514", apiKeyEnv: "ANTHROPIC_API_KEY"},
	"deepseek":  {modelEnv: "DEEPSEEK_MODEL", defaultModel: "deepseek-chat", apiKeyEnv: "DEEPSEEK_API_KEY"},
	"gemini":    {modelEnv: "GEMINI_MODEL", defaultModel: "gemini-2.5-flash", apiKeyEnv: "GEMINI_API_KEY"},
	"compat":    {modelEnv: "COMPAT_MODEL", defaultModel: "llama3", apiKeyEnv: "COMPAT_API_KEY", baseURLEnv: "COMPAT_BASE_URL", keyOptional: true},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"ollama": "compat",
	"local":  "compat",
}

// New creates settings for the specified provider, loading values from environment variables.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 1024)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat32("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}
	if temperature < 0 || temperature > 1 {
		return Settings{}, fmt.Errorf("LLM_TEMPERATURE must be in [0, 1], got %v", temperature)
	}

	inventoryEnabled, err := getEnvBool("INVENTORY_ENABLED", true)
	if err != nil {
		return Settings{}, err
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	dbPath := os.Getenv("DUKAANBOT_DB")
	if dbPath == "" {
		dbPath = "dukaanbot.db"
	}

	scope := os.Getenv("CATALOG_SCOPE")
	if scope == "" {
		scope = "default"
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Bot: BotConfig{
			InventoryEnabled: inventoryEnabled,
			CatalogScope:     scope,
			SystemPrompt:     os.Getenv("SYSTEM_PROMPT"),
		},
		Store: StoreConfig{
			Path: dbPath,
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// Providers marked key-optional return empty without error when unset.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" && !info.keyOptional {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// BaseURLFor returns the endpoint URL for providers that need one.
// Providers with fixed vendor endpoints return empty.
func BaseURLFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.baseURLEnv == "" {
		return "", nil
	}

	url := os.Getenv(info.baseURLEnv)
	if url == "" {
		return "", fmt.Errorf("%s environment variable not set", info.baseURLEnv)
	}
	return url, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat32(key string, defaultVal float32) (float32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return float32(f), nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}
