package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by Config.Provider and NewProvider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects a provider and carries its credentials plus the
// shared retry and timeout settings.
type Config struct {
	// Provider is one of the Provider* constants above.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single request including its retries.
	Timeout time.Duration
}

// AnthropicConfig carries the Anthropic credentials and model choice.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig carries the OpenAI credentials and model choice.
// BaseURL overrides the endpoint for OpenAI-compatible APIs.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig carries the Gemini credentials and model choice.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OpenRouterConfig carries the OpenRouter credentials and model choice.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig shapes the exponential backoff applied to transient
// provider failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the baseline configuration: anthropic with a
// small fast model, three attempts, 30s request timeout.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv layers REFRAME_* environment variables over
// DefaultConfig. Unset variables keep their defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	override(&cfg.Provider, "REFRAME_LLM_PROVIDER")

	override(&cfg.Anthropic.APIKey, "REFRAME_ANTHROPIC_API_KEY")
	override(&cfg.Anthropic.Model, "REFRAME_ANTHROPIC_MODEL")

	override(&cfg.OpenAI.APIKey, "REFRAME_OPENAI_API_KEY")
	override(&cfg.OpenAI.Model, "REFRAME_OPENAI_MODEL")
	override(&cfg.OpenAI.BaseURL, "REFRAME_OPENAI_BASE_URL")

	override(&cfg.Gemini.APIKey, "REFRAME_GEMINI_API_KEY")
	override(&cfg.Gemini.Model, "REFRAME_GEMINI_MODEL")

	override(&cfg.OpenRouter.APIKey, "REFRAME_OPENROUTER_API_KEY")
	override(&cfg.OpenRouter.Model, "REFRAME_OPENROUTER_MODEL")

	return cfg
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig probes the bare provider key variables (GEMINI_API_KEY,
// then OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY) and builds
// a Config for the first one set. The second return is false when no key
// is found.
func DiscoverConfig() (Config, bool) {
	probes := []struct {
		env      string
		provider string
		key      func(*Config) *string
	}{
		{"GEMINI_API_KEY", ProviderGemini, func(c *Config) *string { return &c.Gemini.APIKey }},
		{"OPENAI_API_KEY", ProviderOpenAI, func(c *Config) *string { return &c.OpenAI.APIKey }},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, func(c *Config) *string { return &c.Anthropic.APIKey }},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, func(c *Config) *string { return &c.OpenRouter.APIKey }},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = p.provider
			*p.key(&cfg) = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate reports whether the selected provider has the key it needs.
func (c Config) Validate() error {
	var key, envVar string
	switch c.Provider {
	case ProviderAnthropic:
		key, envVar = c.Anthropic.APIKey, "REFRAME_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, envVar = c.OpenAI.APIKey, "REFRAME_OPENAI_API_KEY"
	case ProviderGemini:
		key, envVar = c.Gemini.APIKey, "REFRAME_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, envVar = c.OpenRouter.APIKey, "REFRAME_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", envVar, c.Provider)
	}
	return nil
}
