// Package bundlecache is an optional hot cache kept in front of the
// persisted bundle snapshots. Entries here are short-lived copies of
// serialized payloads; the SQLite cache rows stay authoritative, so every
// invalidation must purge the matching prefix here as well.
package bundlecache

import (
	"context"
	"time"
)

// Cache stores serialized bundles under "locale:namespace" keys.
type Cache interface {
	// Get retrieves a cached bundle. Returns false if absent or expired.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a serialized bundle.
	Set(ctx context.Context, key, value string) error

	// DeletePrefix drops every key with the given prefix. Used on
	// invalidation; an empty prefix drops everything.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key builds the cache key for a (locale, namespace) bundle.
func Key(locale, namespace string) string {
	return locale + ":" + namespace
}

// LocalePrefix matches every namespace bundle of a locale.
func LocalePrefix(locale string) string {
	return locale + ":"
}

// DefaultTTL bounds staleness of hot copies between explicit purges.
const DefaultTTL = 5 * time.Minute
