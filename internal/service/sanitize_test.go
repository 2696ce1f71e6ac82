package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeValue(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "Sign in to your account", "Sign in to your account"},
		{"tags stripped", "<b>Sign in</b>", "Sign in"},
		{"script content dropped", "Hello <script>alert(1)</script>world", "Hello world"},
		{"whitespace trimmed", "  Hello  ", "Hello"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sanitizeValue(tc.input))
		})
	}
}

func TestWordCount(t *testing.T) {
	require.Equal(t, 0, wordCount(""))
	require.Equal(t, 1, wordCount("Hello"))
	require.Equal(t, 5, wordCount("Sign in to your account"))
	require.Equal(t, 2, wordCount("Café ouvert"))
}

func TestInterpolate(t *testing.T) {
	declared := []string{"name", "count"}

	require.Equal(t, "Hi Eva", interpolate("Hi {name}", declared, map[string]string{"name": "Eva"}))

	// Missing declared var keeps its placeholder.
	require.Equal(t, "Hi {name}", interpolate("Hi {name}", declared, map[string]string{"count": "2"}))

	// Undeclared vars never substitute.
	require.Equal(t, "Hi {hacker}", interpolate("Hi {hacker}", declared, map[string]string{"hacker": "x"}))

	// Nil inputs pass the template through.
	require.Equal(t, "Hi {name}", interpolate("Hi {name}", nil, map[string]string{"name": "Eva"}))
	require.Equal(t, "Hi {name}", interpolate("Hi {name}", declared, nil))
}
