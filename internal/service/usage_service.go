package service

import (
	"context"
	"time"

	"lexio/internal/model"
	"lexio/internal/repository"
)

// dayFormat buckets usage rows by UTC calendar day.
const dayFormat = "2006-01-02"

// UsageService accumulates per (key, locale, day) counters. Unknown key
// names are a silent no-op so instrumentation never breaks callers.
type UsageService interface {
	Record(ctx context.Context, keyName, locale string, loadTimeMs *float64) error
	StatsForDay(ctx context.Context, locale, day string) ([]model.UsageStat, error)
}

type usageService struct {
	usage repository.UsageRepository
	keys  repository.KeyRepository
}

func NewUsageService(usage repository.UsageRepository, keys repository.KeyRepository) UsageService {
	return &usageService{usage: usage, keys: keys}
}

func (s *usageService) Record(ctx context.Context, keyName, locale string, loadTimeMs *float64) error {
	key, err := s.keys.GetByName(ctx, keyName)
	if err != nil {
		return err
	}
	if key == nil {
		return nil
	}

	day := time.Now().UTC().Format(dayFormat)
	return s.usage.Record(ctx, key.ID, locale, day, loadTimeMs)
}

func (s *usageService) StatsForDay(ctx context.Context, locale, day string) ([]model.UsageStat, error) {
	if day == "" {
		day = time.Now().UTC().Format(dayFormat)
	}
	return s.usage.ListByDay(ctx, locale, day)
}
