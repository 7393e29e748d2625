package llm

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/worker"
)

// Config holds provider settings
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	HTTPProxy   string
	HTTPSProxy  string
	NoProxy     string
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 500
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		HTTPProxy:   cfg.HTTPProxy,
		HTTPSProxy:  cfg.HTTPSProxy,
		NoProxy:     cfg.NoProxy,
	}
}

// NewProvider creates the raw provider named by config
func NewProvider(config Config) (Completer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "gemini", "google":
		return NewGeminiProvider(config)
	case "fallback":
		return NewFallback(), nil
	case "", "none":
		// No provider configured, the interview uses the local generator
		return nil, nil
	default:
		return nil, eris.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama, gemini)", config.Provider)
	}
}

// NewCompleter builds the configured provider behind a rate limiter and circuit breaker.
// It returns nil when no provider is configured.
func NewCompleter(cfg model.LLMConfig) (Completer, error) {
	provider, err := NewProvider(ConfigFromModel(cfg))
	if err != nil || provider == nil {
		return nil, err
	}
	if provider.Name() == FallbackName {
		return provider, nil
	}

	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	return NewGuarded(provider, limiter, cfg.BreakerFailures, cfg.BreakerReset), nil
}
