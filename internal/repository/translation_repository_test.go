package repository_test

import (
	"context"
	"testing"

	"lexio/internal/model"
	"lexio/internal/repository"
	"lexio/internal/repository/testutil"

	"github.com/stretchr/testify/require"
)

func TestTranslationRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.login.title", Category: "auth"})

	created, err := repo.Create(ctx, model.Translation{
		KeyID:     keyID,
		Locale:    "en",
		Value:     "Sign in",
		WordCount: 2,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, model.StatusDraft, created.Status)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Sign in", fetched.Value)
	require.Equal(t, model.StatusDraft, fetched.Status)
	require.Equal(t, 2, fetched.WordCount)
}

func TestTranslationRepository_WorkflowTransitions(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "nav.home"})
	id := testutil.SeedTranslation(t, db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})

	ok, err := repo.SetReview(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	// Moving to review twice is a no-op: the status guard fails.
	ok, err = repo.SetReview(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.SetApproved(ctx, id, "reviewer-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.SetPublished(ctx, id, "publisher-1")
	require.NoError(t, err)
	require.True(t, ok)

	tr, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusPublished, tr.Status)
	require.Equal(t, "reviewer-1", *tr.ApprovedBy)
	require.Equal(t, "publisher-1", *tr.PublishedBy)
	require.NotNil(t, tr.ApprovedAt)
	require.NotNil(t, tr.PublishedAt)
}

func TestTranslationRepository_SetPublished_RequiresApproved(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "nav.home"})
	id := testutil.SeedTranslation(t, db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})

	// Draft cannot be published directly; the CAS guard rejects it.
	ok, err := repo.SetPublished(ctx, id, "publisher-1")
	require.NoError(t, err)
	require.False(t, ok)

	tr, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusDraft, tr.Status)
}

func TestTranslationRepository_SetRejected_OnlyFromReview(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "nav.home"})
	id := testutil.SeedTranslation(t, db, model.Translation{KeyID: keyID, Locale: "en", Value: "Home"})

	ok, err := repo.SetRejected(ctx, id, "tone")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.SetReview(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.SetRejected(ctx, id, "tone")
	require.NoError(t, err)
	require.True(t, ok)

	tr, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, tr.Status)
	require.Equal(t, "tone", *tr.RejectedReason)
}

func TestTranslationRepository_SupersedePublished(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "nav.home"})
	oldID := testutil.SeedTranslation(t, db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Home", Status: model.StatusPublished,
	})
	newID := testutil.SeedTranslation(t, db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Start", Status: model.StatusApproved,
	})

	demoted, err := repo.SupersedePublished(ctx, keyID, "en", newID)
	require.NoError(t, err)
	require.Equal(t, int64(1), demoted)

	ok, err := repo.SetPublished(ctx, newID, "publisher-1")
	require.NoError(t, err)
	require.True(t, ok)

	old, err := repo.GetByID(ctx, oldID)
	require.NoError(t, err)
	require.Equal(t, model.StatusSuperseded, old.Status)
	require.Equal(t, newID, *old.SupersededBy)
	require.NotNil(t, old.SupersededAt)

	// Exactly one published row remains for (key, locale).
	resolved, err := repo.GetPublished(ctx, "nav.home", "en")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, "Start", resolved.Value)
}

func TestTranslationRepository_GetPublished(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{
		KeyName:           "greeting.hello",
		Category:          "greeting",
		InterpolationVars: []string{"name"},
	})
	testutil.SeedTranslation(t, db, model.Translation{
		KeyID: keyID, Locale: "en", Value: "Hello, {name}!", Status: model.StatusPublished,
	})
	testutil.SeedTranslation(t, db, model.Translation{
		KeyID: keyID, Locale: "de", Value: "Hallo, {name}!", Status: model.StatusDraft,
	})

	resolved, err := repo.GetPublished(ctx, "greeting.hello", "en")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, "Hello, {name}!", resolved.Value)
	require.Equal(t, []string{"name"}, resolved.InterpolationVars)

	// Draft rows are invisible to the read path.
	resolved, err = repo.GetPublished(ctx, "greeting.hello", "de")
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestTranslationRepository_ListPublished_NamespaceFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	webKey := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.login", Namespace: "web"})
	mobileKey := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.signin", Namespace: "mobile"})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: webKey, Locale: "en", Value: "Log in", Status: model.StatusPublished})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: mobileKey, Locale: "en", Value: "Sign in", Status: model.StatusPublished})

	values, err := repo.ListPublished(ctx, "en", "web")
	require.NoError(t, err)
	require.Len(t, values, 1)
	require.Equal(t, "auth.login", values[0].KeyName)

	// NamespaceAll spans every namespace, ordered by key name.
	values, err = repo.ListPublished(ctx, "en", model.NamespaceAll)
	require.NoError(t, err)
	require.Len(t, values, 2)
	require.Equal(t, "auth.login", values[0].KeyName)
	require.Equal(t, "auth.signin", values[1].KeyName)
}

func TestTranslationRepository_ListByCategory(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	k1 := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.logout", Category: "auth"})
	k2 := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.login", Category: "auth"})
	k3 := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "nav.home", Category: "nav"})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k1, Locale: "en", Value: "Log out", Status: model.StatusPublished})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k2, Locale: "en", Value: "Log in", Status: model.StatusPublished})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k3, Locale: "en", Value: "Home", Status: model.StatusPublished})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k2, Locale: "de", Value: "Anmelden", Status: model.StatusPublished})

	result, err := repo.ListByCategory(ctx, "auth", "en")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "auth.login", result[0].KeyName)
	require.Equal(t, "auth.logout", result[1].KeyName)
}

func TestTranslationRepository_Search(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	k1 := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.login.title", Category: "auth"})
	k2 := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.login.button", Category: "auth"})
	k3 := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "billing.invoice", Category: "billing"})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k1, Locale: "en", Value: "Sign in to your account", Status: model.StatusPublished})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k2, Locale: "en", Value: "Sign in", Status: model.StatusPublished})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: k3, Locale: "en", Value: "Your invoice is ready", Status: model.StatusPublished})

	// Full-word query hits the FTS index.
	results, err := repo.Search(ctx, "sign", "en", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Partial token falls through to the substring supplement.
	results, err = repo.Search(ctx, "nvoic", "en", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "billing.invoice", results[0].KeyName)

	// Category filter.
	results, err = repo.Search(ctx, "sign", "en", []string{"billing"}, 10)
	require.NoError(t, err)
	require.Empty(t, results)

	// Limit is respected.
	results, err = repo.Search(ctx, "sign", "en", nil, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestTranslationRepository_Search_ExcludesDrafts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewTranslationRepository(db)
	ctx := context.Background()

	keyID := testutil.SeedKey(t, db, model.TranslationKey{KeyName: "auth.login", Category: "auth"})
	testutil.SeedTranslation(t, db, model.Translation{KeyID: keyID, Locale: "en", Value: "Sign in", Status: model.StatusDraft})

	results, err := repo.Search(ctx, "sign", "en", nil, 10)
	require.NoError(t, err)
	require.Empty(t, results)
}
