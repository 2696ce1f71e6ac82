package model

import "time"

// UsageStat accumulates per (key, locale, day) counters. Merged on write,
// never read on the resolution path.
type UsageStat struct {
	ID            int64
	KeyID         int64
	Locale        string
	Day           string
	ViewCount     int64
	TotalRequests int64
	AvgLoadTimeMs float64
	LastViewedAt  time.Time
}
