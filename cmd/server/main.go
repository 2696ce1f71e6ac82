package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lexio/internal/bundlecache"
	"lexio/internal/config"
	"lexio/internal/db"
	"lexio/internal/handler"
	transport "lexio/internal/http"
	"lexio/internal/logger"
	"lexio/internal/repository"
	"lexio/internal/service"
	"lexio/internal/service/mt"
	"lexio/internal/snowflake"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(1); err != nil {
		log.Fatalf("init snowflake: %v", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbConn.Close()

	keyRepo := repository.NewKeyRepository(dbConn)
	translationRepo := repository.NewTranslationRepository(dbConn)
	cacheRepo := repository.NewCacheRepository(dbConn)
	usageRepo := repository.NewUsageRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)

	var hot bundlecache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := bundlecache.NewRedisCache(cfg.RedisURL, bundlecache.DefaultTTL)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		hot = redisCache
	} else {
		hot = bundlecache.NewMemoryCache(bundlecache.DefaultTTL)
	}

	ctx := context.Background()

	authService := service.NewAuthService(settingsRepo)
	if err := authService.Bootstrap(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		log.Fatalf("bootstrap admin credential: %v", err)
	}

	catalogueService := service.NewCatalogueService(keyRepo)
	if cfg.CataloguePath != "" {
		n, err := catalogueService.LoadFromFile(ctx, cfg.CataloguePath)
		if err != nil {
			log.Fatalf("load key catalogue: %v", err)
		}
		logger.Info("key catalogue loaded",
			"module", "main", "action", "load", "resource", "catalogue", "result", "ok",
			"keys", n, "path", cfg.CataloguePath)
	}

	usageService := service.NewUsageService(usageRepo, keyRepo)
	resolverService := service.NewResolverService(translationRepo, usageService, cfg.DefaultLocale)
	cacheService := service.NewCacheService(translationRepo, cacheRepo, hot, cfg.BundleTTL)
	workflowService := service.NewWorkflowService(dbConn, translationRepo, keyRepo, cacheRepo, hot, service.AllowAllAuthorizer{})

	var provider mt.Provider
	if cfg.MTProvider != "" {
		provider, err = mt.NewProvider(mt.Config{
			Provider: cfg.MTProvider,
			APIKey:   cfg.MTAPIKey,
			BaseURL:  cfg.MTBaseURL,
			Model:    cfg.MTModel,
		})
		if err != nil {
			log.Fatalf("configure machine translation provider: %v", err)
		}
	}
	suggestService := service.NewSuggestService(provider, mt.NewRateLimiter(cfg.MTQPS), keyRepo, translationRepo, workflowService)

	translationHandler := handler.NewTranslationHandler(resolverService, cacheService, usageService, catalogueService)
	workflowHandler := handler.NewWorkflowHandler(workflowService, suggestService)
	authHandler := handler.NewAuthHandler(authService)

	router := transport.NewRouter(translationHandler, workflowHandler, authHandler, authService)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		os.Exit(0)
	}()

	logger.Info("server starting",
		"module", "main", "action", "start", "resource", "server", "result", "ok",
		"addr", cfg.Addr, "version", config.AppVersion)
	if err := router.Start(cfg.Addr); err != nil {
		log.Fatalf("start server: %v", err)
	}
}
