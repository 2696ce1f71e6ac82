package service_test

import (
	"context"
	"testing"
	"time"

	"lexio/internal/bundlecache"
	"lexio/internal/model"
	"lexio/internal/repository"
	"lexio/internal/repository/mock"
	"lexio/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCacheService_GetBundle_RegeneratesOnMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTranslations := mock.NewMockTranslationRepository(ctrl)
	mockCache := mock.NewMockCacheRepository(ctrl)
	svc := service.NewCacheService(mockTranslations, mockCache, nil, 24*time.Hour)
	ctx := context.Background()

	mockCache.EXPECT().Get(ctx, "en", "web").Return(nil, nil)
	mockTranslations.EXPECT().
		ListPublished(ctx, "en", "web").
		Return([]repository.PublishedValue{
			{KeyName: "auth.login.title", Value: "Sign in"},
			{KeyName: "auth.login.button", Value: "Go"},
			{KeyName: "welcome", Value: "Welcome"},
		}, nil)

	var stored model.CacheEntry
	mockCache.EXPECT().
		Upsert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.CacheEntry) error {
			stored = entry
			return nil
		})

	payload, err := svc.GetBundle(ctx, "en", "web")
	require.NoError(t, err)

	// First segment is the section; deeper segments collapse into a flat
	// dotted leaf; dotless keys sit under their own name.
	require.Equal(t, "Sign in", payload["auth"]["login.title"])
	require.Equal(t, "Go", payload["auth"]["login.button"])
	require.Equal(t, "Welcome", payload["welcome"]["welcome"])

	require.Equal(t, "en", stored.Locale)
	require.Equal(t, "web", stored.Namespace)
	require.True(t, stored.IsValid)
	require.NotZero(t, stored.Version)
	require.True(t, stored.ExpiresAt.After(stored.GeneratedAt))
}

func TestCacheService_GetBundle_ServesFreshSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTranslations := mock.NewMockTranslationRepository(ctrl)
	mockCache := mock.NewMockCacheRepository(ctrl)
	svc := service.NewCacheService(mockTranslations, mockCache, nil, 24*time.Hour)
	ctx := context.Background()

	now := time.Now()
	mockCache.EXPECT().Get(ctx, "en", "web").Return(&model.CacheEntry{
		Locale:    "en",
		Namespace: "web",
		Payload:   map[string]map[string]string{"auth": {"login": "Sign in"}},
		Version:   1,
		ExpiresAt: now.Add(time.Hour),
		IsValid:   true,
	}, nil)

	// No ListPublished, no Upsert: the snapshot answers directly.
	payload, err := svc.GetBundle(ctx, "en", "web")
	require.NoError(t, err)
	require.Equal(t, "Sign in", payload["auth"]["login"])
}

func TestCacheService_GetBundle_RegeneratesStaleSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTranslations := mock.NewMockTranslationRepository(ctrl)
	mockCache := mock.NewMockCacheRepository(ctrl)
	svc := service.NewCacheService(mockTranslations, mockCache, nil, 24*time.Hour)
	ctx := context.Background()

	mockCache.EXPECT().Get(ctx, "en", "web").Return(&model.CacheEntry{
		Locale:    "en",
		Namespace: "web",
		Payload:   map[string]map[string]string{"auth": {"login": "old"}},
		Version:   1,
		ExpiresAt: time.Now().Add(-time.Minute),
		IsValid:   true,
	}, nil)
	mockTranslations.EXPECT().
		ListPublished(ctx, "en", "web").
		Return([]repository.PublishedValue{{KeyName: "auth.login", Value: "new"}}, nil)
	mockCache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	payload, err := svc.GetBundle(ctx, "en", "web")
	require.NoError(t, err)
	require.Equal(t, "new", payload["auth"]["login"])
}

func TestCacheService_GetBundle_RegeneratesInvalidatedSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTranslations := mock.NewMockTranslationRepository(ctrl)
	mockCache := mock.NewMockCacheRepository(ctrl)
	svc := service.NewCacheService(mockTranslations, mockCache, nil, 24*time.Hour)
	ctx := context.Background()

	mockCache.EXPECT().Get(ctx, "en", "web").Return(&model.CacheEntry{
		Locale:    "en",
		Namespace: "web",
		Payload:   map[string]map[string]string{"auth": {"login": "old"}},
		Version:   1,
		ExpiresAt: time.Now().Add(time.Hour),
		IsValid:   false,
	}, nil)
	mockTranslations.EXPECT().
		ListPublished(ctx, "en", "web").
		Return([]repository.PublishedValue{{KeyName: "auth.login", Value: "new"}}, nil)
	mockCache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	payload, err := svc.GetBundle(ctx, "en", "web")
	require.NoError(t, err)
	require.Equal(t, "new", payload["auth"]["login"])
}

func TestCacheService_GetBundle_EmptyLocale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTranslations := mock.NewMockTranslationRepository(ctrl)
	mockCache := mock.NewMockCacheRepository(ctrl)
	svc := service.NewCacheService(mockTranslations, mockCache, nil, 24*time.Hour)

	_, err := svc.GetBundle(context.Background(), "", "web")
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestCacheService_Invalidate_PurgesHotCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTranslations := mock.NewMockTranslationRepository(ctrl)
	mockCache := mock.NewMockCacheRepository(ctrl)
	hot := bundlecache.NewMemoryCache(time.Minute)
	svc := service.NewCacheService(mockTranslations, mockCache, hot, 24*time.Hour)
	ctx := context.Background()

	require.NoError(t, hot.Set(ctx, bundlecache.Key("en", "web"), `{"auth":{"login":"Sign in"}}`))
	require.NoError(t, hot.Set(ctx, bundlecache.Key("de", "web"), `{"auth":{"login":"Anmelden"}}`))

	locale := "en"
	mockCache.EXPECT().Invalidate(ctx, &locale, nil, "edit").Return(int64(2), nil)

	affected, err := svc.Invalidate(ctx, &locale, nil, "edit")
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	_, ok := hot.Get(ctx, bundlecache.Key("en", "web"))
	require.False(t, ok)
	_, ok = hot.Get(ctx, bundlecache.Key("de", "web"))
	require.True(t, ok)
}
