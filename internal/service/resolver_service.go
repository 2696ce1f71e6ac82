package service

import (
	"context"
	"strings"
	"time"

	"lexio/internal/logger"
	"lexio/internal/model"
	"lexio/internal/repository"
)

// ResolverService is the runtime lookup path. Resolve never fails: when no
// published translation exists in the locale or its fallback, the key name
// itself is returned so rendering paths keep working.
type ResolverService interface {
	Resolve(ctx context.Context, keyName, locale string, vars map[string]string, fallbackLocale string) string
	GetByCategory(ctx context.Context, category, locale string) ([]model.ResolvedTranslation, error)
	Search(ctx context.Context, query, locale string, categories []string, limit int) ([]model.SearchResult, error)
}

type resolverService struct {
	translations  repository.TranslationRepository
	usage         UsageService
	defaultLocale string
}

func NewResolverService(translations repository.TranslationRepository, usage UsageService, defaultLocale string) ResolverService {
	return &resolverService{
		translations:  translations,
		usage:         usage,
		defaultLocale: defaultLocale,
	}
}

func (s *resolverService) Resolve(ctx context.Context, keyName, locale string, vars map[string]string, fallbackLocale string) string {
	start := time.Now()
	if fallbackLocale == "" {
		fallbackLocale = s.defaultLocale
	}

	resolved, err := s.translations.GetPublished(ctx, keyName, locale)
	if err != nil {
		logger.Error("resolve lookup failed",
			"module", "resolver", "action", "resolve", "resource", "translation", "result", "failed",
			"key", keyName, "locale", locale, "error", err)
		return keyName
	}
	if resolved == nil && fallbackLocale != locale {
		resolved, err = s.translations.GetPublished(ctx, keyName, fallbackLocale)
		if err != nil {
			logger.Error("resolve fallback lookup failed",
				"module", "resolver", "action", "resolve", "resource", "translation", "result", "failed",
				"key", keyName, "locale", fallbackLocale, "error", err)
			return keyName
		}
	}

	s.recordUsage(keyName, locale, time.Since(start))

	if resolved == nil {
		return keyName
	}
	return interpolate(resolved.Template(), resolved.InterpolationVars, vars)
}

// GetByCategory returns all published rows of a category in one exact
// locale, ordered by key name. No fallback is applied.
func (s *resolverService) GetByCategory(ctx context.Context, category, locale string) ([]model.ResolvedTranslation, error) {
	if category == "" || locale == "" {
		return nil, ErrInvalid
	}
	return s.translations.ListByCategory(ctx, category, locale)
}

func (s *resolverService) Search(ctx context.Context, query, locale string, categories []string, limit int) ([]model.SearchResult, error) {
	if query == "" || locale == "" {
		return nil, ErrInvalid
	}
	return s.translations.Search(ctx, query, locale, categories, limit)
}

// recordUsage is a fire-and-forget side effect; failures never reach the
// read path.
func (s *resolverService) recordUsage(keyName, locale string, elapsed time.Duration) {
	if s.usage == nil {
		return
	}
	sample := float64(elapsed.Microseconds()) / 1000.0
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.usage.Record(ctx, keyName, locale, &sample); err != nil {
			logger.Warn("usage record failed",
				"module", "resolver", "action", "record", "resource", "usage", "result", "failed",
				"key", keyName, "locale", locale, "error", err)
		}
	}()
}

// interpolate substitutes {name} tokens for names on the declared
// whitelist only. Supplied vars outside the whitelist are ignored, and
// whitelisted vars missing from the input stay as unresolved placeholders.
func interpolate(template string, declared []string, vars map[string]string) string {
	if len(declared) == 0 || len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(declared)*2)
	for _, name := range declared {
		value, ok := vars[name]
		if !ok {
			continue
		}
		pairs = append(pairs, "{"+name+"}", value)
	}
	if len(pairs) == 0 {
		return template
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
