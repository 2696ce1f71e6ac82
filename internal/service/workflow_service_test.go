package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lexio/internal/bundlecache"
	"lexio/internal/model"
	"lexio/internal/repository"
	"lexio/internal/repository/testutil"
	"lexio/internal/service"

	"github.com/stretchr/testify/require"
)

// denyAuthorizer rejects a single action for everyone.
type denyAuthorizer struct {
	denied string
}

func (a denyAuthorizer) CanTransition(_ context.Context, _ string, _ model.Translation, action string) (bool, error) {
	return action != a.denied, nil
}

type workflowFixture struct {
	db           *sql.DB
	translations repository.TranslationRepository
	cache        repository.CacheRepository
	hot          *bundlecache.MemoryCache
	workflow     service.WorkflowService
}

func newWorkflowFixture(t *testing.T, authz service.Authorizer) workflowFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	translations := repository.NewTranslationRepository(db)
	keys := repository.NewKeyRepository(db)
	cache := repository.NewCacheRepository(db)
	hot := bundlecache.NewMemoryCache(time.Minute)
	return workflowFixture{
		db:           db,
		translations: translations,
		cache:        cache,
		hot:          hot,
		workflow:     service.NewWorkflowService(db, translations, keys, cache, hot, authz),
	}
}

func TestWorkflowService_SubmitDraft_SanitizesValue(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "auth.login.title", Category: "auth"})

	tr, err := f.workflow.SubmitDraft(ctx, service.SubmitDraftParams{
		KeyName: "auth.login.title",
		Locale:  "en",
		Value:   "<b>Sign in</b> to your <script>alert(1)</script>account",
		ActorID: "translator-1",
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusDraft, tr.Status)
	require.Equal(t, "Sign in to your account", tr.Value)
	require.Equal(t, 5, tr.WordCount)
}

func TestWorkflowService_SubmitDraft_UnknownKey(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})

	_, err := f.workflow.SubmitDraft(context.Background(), service.SubmitDraftParams{
		KeyName: "ghost.key",
		Locale:  "en",
		Value:   "Hello",
	})
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestWorkflowService_FullLifecycle(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home", Namespace: "web"})
	id := testutil.SeedTranslation(t, f.db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})

	require.NoError(t, f.workflow.SubmitForReview(ctx, id, "translator-1"))
	require.NoError(t, f.workflow.Approve(ctx, id, "reviewer-1"))
	require.NoError(t, f.workflow.Publish(ctx, id, "publisher-1"))

	tr, err := f.translations.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusPublished, tr.Status)
	require.Equal(t, "reviewer-1", *tr.ApprovedBy)
	require.Equal(t, "publisher-1", *tr.PublishedBy)
}

func TestWorkflowService_Reject_BacksOutOfReview(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home"})
	id := testutil.SeedTranslation(t, f.db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})

	require.NoError(t, f.workflow.SubmitForReview(ctx, id, "translator-1"))
	require.NoError(t, f.workflow.Reject(ctx, id, "reviewer-1", "wrong register"))

	tr, err := f.translations.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, tr.Status)
	require.Equal(t, "wrong register", *tr.RejectedReason)
}

func TestWorkflowService_Publish_RequiresApproved(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home"})
	id := testutil.SeedTranslation(t, f.db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})

	err := f.workflow.Publish(ctx, id, "publisher-1")
	require.ErrorIs(t, err, service.ErrInvalidState)
}

func TestWorkflowService_Publish_SupersedesAndInvalidates(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home", Namespace: "web"})
	oldID := testutil.SeedTranslation(t, f.db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Home", Status: model.StatusPublished,
	})
	newID := testutil.SeedTranslation(t, f.db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Start", Status: model.StatusApproved,
	})

	now := time.Now().UTC()
	require.NoError(t, f.cache.Upsert(ctx, model.CacheEntry{
		Locale: "en", Namespace: "web",
		Payload:     map[string]map[string]string{"nav": {"home": "Home"}},
		Version:     1,
		GeneratedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}))
	require.NoError(t, f.cache.Upsert(ctx, model.CacheEntry{
		Locale: "de", Namespace: "web",
		Payload:     map[string]map[string]string{"nav": {"home": "Start"}},
		Version:     1,
		GeneratedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}))
	require.NoError(t, f.hot.Set(ctx, bundlecache.Key("en", "web"), "{}"))

	require.NoError(t, f.workflow.Publish(ctx, newID, "publisher-1"))

	old, err := f.translations.GetByID(ctx, oldID)
	require.NoError(t, err)
	require.Equal(t, model.StatusSuperseded, old.Status)
	require.Equal(t, newID, *old.SupersededBy)

	// Matching (locale, namespace) snapshot is invalidated, others untouched.
	entry, err := f.cache.Get(ctx, "en", "web")
	require.NoError(t, err)
	require.False(t, entry.IsValid)
	entry, err = f.cache.Get(ctx, "de", "web")
	require.NoError(t, err)
	require.True(t, entry.IsValid)

	// Hot copy is purged too.
	_, ok := f.hot.Get(ctx, bundlecache.Key("en", "web"))
	require.False(t, ok)
}

func TestWorkflowService_AuthorizerDeniesTransition(t *testing.T) {
	f := newWorkflowFixture(t, denyAuthorizer{denied: service.ActionPublish})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home"})
	id := testutil.SeedTranslation(t, f.db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Home", Status: model.StatusApproved,
	})

	err := f.workflow.Publish(ctx, id, "intern-1")
	require.ErrorIs(t, err, service.ErrForbidden)

	// Other transitions remain allowed.
	id2 := testutil.SeedTranslation(t, f.db, model.Translation{KeyID: keyID, Locale: "de", Value: "Start"})
	require.NoError(t, f.workflow.SubmitForReview(ctx, id2, "intern-1"))
}

func TestWorkflowService_Publish_MissingTranslation(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})

	err := f.workflow.Publish(context.Background(), 424242, "publisher-1")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestWorkflowService_BulkTransition_SkipsInvalidRows(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home"})
	draft1 := testutil.SeedTranslation(t, f.db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})
	draft2 := testutil.SeedTranslation(t, f.db, model.Translation{KeyID: keyID, Locale: "de", Value: "Start"})
	published := testutil.SeedTranslation(t, f.db, model.Translation{
		KeyID: keyID, Locale: "fr", Value: "Accueil", Status: model.StatusPublished,
	})

	applied, err := f.workflow.BulkTransition(ctx, []int64{draft1, draft2, published, 424242}, model.StatusReview, "translator-1")
	require.NoError(t, err)
	require.Equal(t, 2, applied)
}

func TestWorkflowService_BulkTransition_PublishInvalidatesOnce(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})
	ctx := context.Background()

	keyID := testutil.SeedKey(t, f.db, model.TranslationKey{KeyName: "nav.home"})
	id1 := testutil.SeedTranslation(t, f.db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Home", Status: model.StatusApproved,
	})
	id2 := testutil.SeedTranslation(t, f.db, model.Translation{
		KeyID: keyID, Locale: "de", Value: "Start", Status: model.StatusApproved,
	})

	now := time.Now().UTC()
	require.NoError(t, f.cache.Upsert(ctx, model.CacheEntry{
		Locale: "es", Namespace: "web",
		Payload:     map[string]map[string]string{},
		Version:     1,
		GeneratedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}))

	applied, err := f.workflow.BulkTransition(ctx, []int64{id1, id2}, model.StatusPublished, "publisher-1")
	require.NoError(t, err)
	require.Equal(t, 2, applied)

	// Bulk publish performs one broad invalidation across all snapshots.
	entry, err := f.cache.Get(ctx, "es", "web")
	require.NoError(t, err)
	require.False(t, entry.IsValid)

	reason := *entry.InvalidationReason
	require.Equal(t, "bulk publish", reason)
}

func TestWorkflowService_BulkTransition_UnknownStatus(t *testing.T) {
	f := newWorkflowFixture(t, service.AllowAllAuthorizer{})

	_, err := f.workflow.BulkTransition(context.Background(), []int64{1}, "archived", "x")
	require.ErrorIs(t, err, service.ErrInvalid)
}
