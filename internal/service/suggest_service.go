package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"lexio/internal/logger"
	"lexio/internal/model"
	"lexio/internal/repository"
	"lexio/internal/service/mt"
)

// SuggestService files machine-translated drafts for human review. The
// provider call runs under a rate limit and a circuit breaker; a tripped
// breaker surfaces as ErrUnavailable instead of hammering the provider.
type SuggestService interface {
	SuggestDraft(ctx context.Context, keyName, sourceLocale, targetLocale, actorID string) (model.Translation, error)
}

type suggestService struct {
	provider     mt.Provider
	limiter      *mt.RateLimiter
	breaker      *gobreaker.CircuitBreaker
	keys         repository.KeyRepository
	translations repository.TranslationRepository
	workflow     WorkflowService
}

func NewSuggestService(
	provider mt.Provider,
	limiter *mt.RateLimiter,
	keys repository.KeyRepository,
	translations repository.TranslationRepository,
	workflow WorkflowService,
) SuggestService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mt-provider",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &suggestService{
		provider:     provider,
		limiter:      limiter,
		breaker:      breaker,
		keys:         keys,
		translations: translations,
		workflow:     workflow,
	}
}

func (s *suggestService) SuggestDraft(ctx context.Context, keyName, sourceLocale, targetLocale, actorID string) (model.Translation, error) {
	if s.provider == nil {
		return model.Translation{}, fmt.Errorf("%w: no machine translation provider configured", ErrUnavailable)
	}
	if keyName == "" || sourceLocale == "" || targetLocale == "" || sourceLocale == targetLocale {
		return model.Translation{}, ErrInvalid
	}

	key, err := s.keys.GetByName(ctx, keyName)
	if err != nil {
		return model.Translation{}, err
	}
	if key == nil || !key.IsActive {
		return model.Translation{}, ErrNotFound
	}

	source, err := s.translations.GetPublished(ctx, keyName, sourceLocale)
	if err != nil {
		return model.Translation{}, err
	}
	if source == nil {
		return model.Translation{}, fmt.Errorf("%w: no published %s translation for %s", ErrNotFound, sourceLocale, keyName)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return model.Translation{}, err
	}

	description := ""
	if key.Description != nil {
		description = *key.Description
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Translate(ctx, source.Value, sourceLocale, targetLocale, description)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return model.Translation{}, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return model.Translation{}, fmt.Errorf("machine translation: %w", err)
	}

	translated := result.(string)
	draft, err := s.workflow.SubmitDraft(ctx, SubmitDraftParams{
		KeyName: keyName,
		Locale:  targetLocale,
		Value:   translated,
		ActorID: actorID,
	})
	if err != nil {
		return model.Translation{}, err
	}

	logger.Info("machine translation draft filed",
		"module", "suggest", "action", "suggest", "resource", "translation", "result", "ok",
		"key", keyName, "source_locale", sourceLocale, "target_locale", targetLocale,
		"provider", s.provider.Name(), "translation_id", draft.ID)
	return draft, nil
}
