// Package mt wraps machine translation providers used to pre-fill draft
// translations for human review.
package mt

import (
	"context"
	"errors"
	"fmt"
)

// Provider defines the interface for machine translation backends.
type Provider interface {
	// Translate renders text from sourceLocale into targetLocale.
	// description gives the translator model context about where the
	// string appears.
	Translate(ctx context.Context, text, sourceLocale, targetLocale, description string) (string, error)
	// Name returns the provider name.
	Name() string
}

// Config holds the configuration for a machine translation provider.
type Config struct {
	Provider string // openai, anthropic
	APIKey   string
	BaseURL  string // optional
	Model    string
}

// Provider type constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrMissingAPIKey   = errors.New("API key is required")
	ErrMissingModel    = errors.New("model is required")
	ErrEmptyResponse   = errors.New("provider returned empty response")
)

// NewProvider creates a machine translation provider based on the config.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, ErrInvalidProvider
	}
}

func systemPrompt(sourceLocale, targetLocale, description string) string {
	prompt := fmt.Sprintf(
		"You are a professional software localizer. Translate the user's UI string from %s to %s. "+
			"Preserve {placeholder} tokens exactly as written. Reply with the translation only, no quotes or commentary.",
		sourceLocale, targetLocale)
	if description != "" {
		prompt += " Context: " + description
	}
	return prompt
}
