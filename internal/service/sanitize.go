package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var valuePolicy = bluemonday.StrictPolicy()

// sanitizeValue strips all markup from a submitted translation value.
// Translators paste from rich editors; stored values must be plain text.
func sanitizeValue(value string) string {
	return strings.TrimSpace(valuePolicy.Sanitize(value))
}

// wordCount counts words in the text content of value, decoding any
// entities and ignoring residual markup.
func wordCount(value string) int {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(value))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
			b.WriteByte(' ')
		}
	}
	return len(strings.Fields(b.String()))
}
