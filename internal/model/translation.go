package model

import "time"

// Translation workflow statuses.
const (
	StatusDraft      = "draft"
	StatusReview     = "review"
	StatusApproved   = "approved"
	StatusPublished  = "published"
	StatusRejected   = "rejected"
	StatusSuperseded = "superseded"
)

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusPublished, StatusRejected, StatusSuperseded:
		return true
	}
	return false
}

// Translation is one localized value for one key in one locale.
// Rows are never hard-deleted; a published row is demoted to superseded
// when a newer row for the same (key, locale) is published.
type Translation struct {
	ID             int64
	KeyID          int64
	Locale         string
	Value          string
	ICUMessage     *string
	Status         string
	WordCount      int
	ApprovedBy     *string
	ApprovedAt     *time.Time
	PublishedBy    *string
	PublishedAt    *time.Time
	RejectedReason *string
	SupersededAt   *time.Time
	SupersededBy   *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResolvedTranslation is the read-path projection: translation row joined
// with its key's resolution metadata.
type ResolvedTranslation struct {
	KeyName               string
	Locale                string
	Value                 string
	ICUMessage            *string
	InterpolationVars     []string
	SupportsPluralization bool
}

// Template returns the ICU message when present, the plain value otherwise.
func (r ResolvedTranslation) Template() string {
	if r.ICUMessage != nil && *r.ICUMessage != "" {
		return *r.ICUMessage
	}
	return r.Value
}

// SearchResult is one ranked hit from translation search.
type SearchResult struct {
	KeyName  string
	Category string
	Locale   string
	Value    string
	Rank     float64
}
