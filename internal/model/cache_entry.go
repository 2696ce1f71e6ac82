package model

import "time"

// NamespaceAll marks a cache entry covering every namespace of a locale.
// Stored as the empty string so the (locale, namespace) uniqueness holds.
const NamespaceAll = ""

// CacheEntry is a generated bundle snapshot for one (locale, namespace).
// Invalidation flips IsValid and stamps the reason; rows are kept for inspection.
type CacheEntry struct {
	ID                 int64
	Locale             string
	Namespace          string
	Payload            map[string]map[string]string
	Version            int64
	GeneratedAt        time.Time
	ExpiresAt          time.Time
	GenerationTimeMs   int64
	IsValid            bool
	InvalidatedAt      *time.Time
	InvalidationReason *string
}

// Fresh reports whether the entry may serve reads at the given instant.
func (e CacheEntry) Fresh(now time.Time) bool {
	return e.IsValid && e.ExpiresAt.After(now)
}
