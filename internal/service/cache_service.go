package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"lexio/internal/bundlecache"
	"lexio/internal/logger"
	"lexio/internal/model"
	"lexio/internal/repository"
)

// CacheService serves generated bundle snapshots: hot cache first, then the
// persisted snapshot, regenerating from published rows on miss or staleness.
type CacheService interface {
	// GetBundle returns the nested payload for (locale, namespace).
	// namespace may be model.NamespaceAll for the whole locale.
	GetBundle(ctx context.Context, locale, namespace string) (map[string]map[string]string, error)

	// Invalidate marks matching snapshots stale and purges hot copies.
	// Returns the number of persisted rows affected.
	Invalidate(ctx context.Context, locale, namespace *string, reason string) (int64, error)

	// ListEntries exposes snapshot metadata, including invalidated rows.
	ListEntries(ctx context.Context) ([]model.CacheEntry, error)
}

type cacheService struct {
	translations repository.TranslationRepository
	cache        repository.CacheRepository
	hot          bundlecache.Cache
	ttl          time.Duration
	group        singleflight.Group
}

func NewCacheService(
	translations repository.TranslationRepository,
	cache repository.CacheRepository,
	hot bundlecache.Cache,
	ttl time.Duration,
) CacheService {
	return &cacheService{
		translations: translations,
		cache:        cache,
		hot:          hot,
		ttl:          ttl,
	}
}

func (s *cacheService) GetBundle(ctx context.Context, locale, namespace string) (map[string]map[string]string, error) {
	if locale == "" {
		return nil, ErrInvalid
	}
	key := bundlecache.Key(locale, namespace)

	if s.hot != nil {
		if raw, ok := s.hot.Get(ctx, key); ok {
			var payload map[string]map[string]string
			if err := json.Unmarshal([]byte(raw), &payload); err == nil {
				return payload, nil
			}
		}
	}

	entry, err := s.cache.Get(ctx, locale, namespace)
	if err != nil {
		return nil, err
	}
	if entry != nil && entry.Fresh(time.Now()) {
		s.setHot(ctx, key, entry.Payload)
		return entry.Payload, nil
	}

	// Collapse concurrent regenerations of the same bundle into one build.
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		fresh, err := s.regenerate(ctx, locale, namespace)
		if err != nil {
			return nil, err
		}
		return fresh.Payload, nil
	})
	if err != nil {
		return nil, err
	}
	payload := result.(map[string]map[string]string)
	s.setHot(ctx, key, payload)
	return payload, nil
}

// regenerate builds the snapshot from currently published rows and replaces
// the persisted entry. The build is deterministic for a fixed row set.
func (s *cacheService) regenerate(ctx context.Context, locale, namespace string) (model.CacheEntry, error) {
	buildID := uuid.NewString()
	start := time.Now()

	rows, err := s.translations.ListPublished(ctx, locale, namespace)
	if err != nil {
		return model.CacheEntry{}, err
	}

	payload := buildPayload(rows)
	generatedAt := time.Now()

	entry := model.CacheEntry{
		Locale:           locale,
		Namespace:        namespace,
		Payload:          payload,
		Version:          generatedAt.UnixNano(),
		GeneratedAt:      generatedAt,
		ExpiresAt:        generatedAt.Add(s.ttl),
		GenerationTimeMs: time.Since(start).Milliseconds(),
		IsValid:          true,
	}

	if err := s.cache.Upsert(ctx, entry); err != nil {
		return model.CacheEntry{}, err
	}

	logger.Info("bundle generated",
		"module", "cache", "action", "generate", "resource", "bundle", "result", "ok",
		"build_id", buildID, "locale", locale, "namespace", namespace,
		"keys", len(rows), "duration_ms", entry.GenerationTimeMs)
	return entry, nil
}

func (s *cacheService) Invalidate(ctx context.Context, locale, namespace *string, reason string) (int64, error) {
	affected, err := s.cache.Invalidate(ctx, locale, namespace, reason)
	if err != nil {
		return 0, err
	}

	if s.hot != nil {
		prefix := ""
		if locale != nil {
			prefix = bundlecache.LocalePrefix(*locale)
		}
		if err := s.hot.DeletePrefix(ctx, prefix); err != nil {
			logger.Warn("hot cache purge failed",
				"module", "cache", "action", "invalidate", "resource", "cache", "result", "failed",
				"error", err)
		}
	}

	logger.Info("cache invalidated",
		"module", "cache", "action", "invalidate", "resource", "cache", "result", "ok",
		"affected", affected, "reason", reason)
	return affected, nil
}

func (s *cacheService) ListEntries(ctx context.Context) ([]model.CacheEntry, error) {
	return s.cache.List(ctx)
}

func (s *cacheService) setHot(ctx context.Context, key string, payload map[string]map[string]string) {
	if s.hot == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.hot.Set(ctx, key, string(raw)); err != nil {
		logger.Debug("hot cache set failed",
			"module", "cache", "action", "set", "resource", "cache", "result", "failed",
			"key", key, "error", err)
	}
}

// buildPayload nests published values one level: the first dotted segment
// of the key name is the section, the remainder the leaf. Keys deeper than
// two segments collapse to a flat dotted leaf inside their section; keys
// with no dot sit under their own name.
func buildPayload(rows []repository.PublishedValue) map[string]map[string]string {
	payload := make(map[string]map[string]string, len(rows))
	for _, row := range rows {
		section := row.KeyName
		leaf := row.KeyName
		if i := strings.IndexByte(row.KeyName, '.'); i >= 0 {
			section = row.KeyName[:i]
			leaf = row.KeyName[i+1:]
		}
		if payload[section] == nil {
			payload[section] = make(map[string]string)
		}
		payload[section][leaf] = row.Value
	}
	return payload
}
