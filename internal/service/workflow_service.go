package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lexio/internal/bundlecache"
	"lexio/internal/logger"
	"lexio/internal/model"
	"lexio/internal/repository"
)

// SubmitDraftParams carries a translator submission. The value is
// sanitized before storage; a new draft row is always created, published
// rows are never edited in place.
type SubmitDraftParams struct {
	KeyName    string
	Locale     string
	Value      string
	ICUMessage *string
	ActorID    string
}

// WorkflowService governs the translation lifecycle:
// draft -> review -> approved -> published, with review -> rejected -> draft rework.
type WorkflowService interface {
	SubmitDraft(ctx context.Context, params SubmitDraftParams) (model.Translation, error)
	SubmitForReview(ctx context.Context, id int64, actorID string) error
	Approve(ctx context.Context, id int64, actorID string) error
	Reject(ctx context.Context, id int64, actorID, reason string) error
	Publish(ctx context.Context, id int64, actorID string) error
	BulkTransition(ctx context.Context, ids []int64, newStatus, actorID string) (int, error)
}

type workflowService struct {
	db           *sql.DB
	translations repository.TranslationRepository
	keys         repository.KeyRepository
	cache        repository.CacheRepository
	hot          bundlecache.Cache
	authz        Authorizer
}

func NewWorkflowService(
	db *sql.DB,
	translations repository.TranslationRepository,
	keys repository.KeyRepository,
	cache repository.CacheRepository,
	hot bundlecache.Cache,
	authz Authorizer,
) WorkflowService {
	return &workflowService{
		db:           db,
		translations: translations,
		keys:         keys,
		cache:        cache,
		hot:          hot,
		authz:        authz,
	}
}

func (s *workflowService) SubmitDraft(ctx context.Context, params SubmitDraftParams) (model.Translation, error) {
	if params.KeyName == "" || params.Locale == "" {
		return model.Translation{}, ErrInvalid
	}

	key, err := s.keys.GetByName(ctx, params.KeyName)
	if err != nil {
		return model.Translation{}, err
	}
	if key == nil || !key.IsActive {
		return model.Translation{}, ErrNotFound
	}

	value := sanitizeValue(params.Value)
	if value == "" {
		return model.Translation{}, ErrInvalid
	}

	if err := s.authorize(ctx, params.ActorID, model.Translation{KeyID: key.ID, Locale: params.Locale}, ActionSubmit); err != nil {
		return model.Translation{}, err
	}

	translation, err := s.translations.Create(ctx, model.Translation{
		KeyID:      key.ID,
		Locale:     params.Locale,
		Value:      value,
		ICUMessage: params.ICUMessage,
		Status:     model.StatusDraft,
		WordCount:  wordCount(value),
	})
	if err != nil {
		return model.Translation{}, err
	}

	logger.Info("draft submitted",
		"module", "workflow", "action", "submit", "resource", "translation", "result", "ok",
		"translation_id", translation.ID, "key", params.KeyName, "locale", params.Locale)
	return translation, nil
}

func (s *workflowService) SubmitForReview(ctx context.Context, id int64, actorID string) error {
	translation, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, translation, ActionSubmitForReview); err != nil {
		return err
	}

	ok, err := s.translations.SetReview(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &StateError{TranslationID: id, From: translation.Status, To: model.StatusReview}
	}
	return nil
}

func (s *workflowService) Approve(ctx context.Context, id int64, actorID string) error {
	translation, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, translation, ActionApprove); err != nil {
		return err
	}

	ok, err := s.translations.SetApproved(ctx, id, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return &StateError{TranslationID: id, From: translation.Status, To: model.StatusApproved}
	}
	return nil
}

func (s *workflowService) Reject(ctx context.Context, id int64, actorID, reason string) error {
	translation, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, translation, ActionReject); err != nil {
		return err
	}

	ok, err := s.translations.SetRejected(ctx, id, reason)
	if err != nil {
		return err
	}
	if !ok {
		return &StateError{TranslationID: id, From: translation.Status, To: model.StatusRejected}
	}
	return nil
}

// Publish atomically supersedes the current published row for the same
// (key, locale), promotes this row, and invalidates matching cache entries.
// All three happen in one transaction or not at all.
func (s *workflowService) Publish(ctx context.Context, id int64, actorID string) error {
	if err := s.publish(ctx, id, actorID, true); err != nil {
		return err
	}
	return nil
}

func (s *workflowService) publish(ctx context.Context, id int64, actorID string, invalidate bool) error {
	translation, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, translation, ActionPublish); err != nil {
		return err
	}
	if translation.Status != model.StatusApproved {
		return &StateError{TranslationID: id, From: translation.Status, To: model.StatusPublished}
	}

	key, err := s.keys.GetByID(ctx, translation.KeyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish tx: %w", err)
	}
	defer tx.Rollback()

	txTranslations := repository.NewTranslationRepository(tx)
	txCache := repository.NewCacheRepository(tx)

	superseded, err := txTranslations.SupersedePublished(ctx, translation.KeyID, translation.Locale, id)
	if err != nil {
		return err
	}

	// Compare-and-swap on status: a concurrent publish that already moved
	// this row out of approved loses here and the transaction unwinds.
	ok, err := txTranslations.SetPublished(ctx, id, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: translation %d raced out of approved", ErrConflict, id)
	}

	if invalidate {
		reason := fmt.Sprintf("translation published: %d", id)
		var namespace *string
		if key.Namespace != model.NamespaceAll {
			namespace = &key.Namespace
		}
		if _, err := txCache.Invalidate(ctx, &translation.Locale, namespace, reason); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish tx: %w", err)
	}

	if invalidate && s.hot != nil {
		if err := s.hot.DeletePrefix(ctx, bundlecache.LocalePrefix(translation.Locale)); err != nil {
			logger.Warn("hot cache purge failed",
				"module", "workflow", "action", "publish", "resource", "cache", "result", "failed",
				"locale", translation.Locale, "error", err)
		}
	}

	logger.Info("translation published",
		"module", "workflow", "action", "publish", "resource", "translation", "result", "ok",
		"translation_id", id, "locale", translation.Locale, "superseded", superseded)
	return nil
}

// BulkTransition applies newStatus across ids, skipping rows that fail a
// state check. Bulk publishes trigger one broad invalidation instead of one
// per row to bound cost.
func (s *workflowService) BulkTransition(ctx context.Context, ids []int64, newStatus, actorID string) (int, error) {
	if !model.ValidStatus(newStatus) {
		return 0, ErrInvalid
	}

	applied := 0
	for _, id := range ids {
		var err error
		switch newStatus {
		case model.StatusReview:
			err = s.SubmitForReview(ctx, id, actorID)
		case model.StatusApproved:
			err = s.Approve(ctx, id, actorID)
		case model.StatusRejected:
			err = s.Reject(ctx, id, actorID, "bulk rejection")
		case model.StatusPublished:
			err = s.publish(ctx, id, actorID, false)
		default:
			return applied, ErrInvalid
		}

		if err != nil {
			if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
				logger.Warn("bulk transition skipped row",
					"module", "workflow", "action", "bulk", "resource", "translation", "result", "skipped",
					"translation_id", id, "status", newStatus, "error", err)
				continue
			}
			return applied, err
		}
		applied++
	}

	if newStatus == model.StatusPublished && applied > 0 {
		if _, err := s.cache.Invalidate(ctx, nil, nil, "bulk publish"); err != nil {
			return applied, err
		}
		if s.hot != nil {
			if err := s.hot.DeletePrefix(ctx, ""); err != nil {
				logger.Warn("hot cache purge failed",
					"module", "workflow", "action", "bulk", "resource", "cache", "result", "failed",
					"error", err)
			}
		}
	}

	return applied, nil
}

func (s *workflowService) get(ctx context.Context, id int64) (model.Translation, error) {
	translation, err := s.translations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Translation{}, ErrNotFound
		}
		return model.Translation{}, err
	}
	return translation, nil
}

func (s *workflowService) authorize(ctx context.Context, actorID string, translation model.Translation, action string) error {
	ok, err := s.authz.CanTransition(ctx, actorID, translation, action)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", action, err)
	}
	if !ok {
		return fmt.Errorf("%w: actor %s may not %s", ErrForbidden, actorID, action)
	}
	return nil
}
