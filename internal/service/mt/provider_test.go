package mt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewProvider(Config{Provider: ProviderOpenAI, APIKey: "key"})
	require.ErrorIs(t, err, ErrMissingModel)

	_, err = NewProvider(Config{Provider: "bing", APIKey: "key", Model: "m"})
	require.ErrorIs(t, err, ErrInvalidProvider)
}

func TestNewProvider_KnownProviders(t *testing.T) {
	p, err := NewProvider(Config{Provider: ProviderOpenAI, APIKey: "key", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, p.Name())

	p, err = NewProvider(Config{Provider: ProviderAnthropic, APIKey: "key", Model: "claude"})
	require.NoError(t, err)
	require.Equal(t, ProviderAnthropic, p.Name())
}

func TestSystemPrompt(t *testing.T) {
	prompt := systemPrompt("en", "de", "")
	require.Contains(t, prompt, "from en to de")
	require.Contains(t, prompt, "{placeholder}")
	require.False(t, strings.Contains(prompt, "Context:"))

	prompt = systemPrompt("en", "fr", "login button label")
	require.Contains(t, prompt, "Context: login button label")
}
