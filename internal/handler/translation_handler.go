package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"lexio/internal/service"
)

// TranslationHandler serves the read paths: resolve, bundles, category
// listings, search, usage recording, and cache inspection.
type TranslationHandler struct {
	resolver  service.ResolverService
	cache     service.CacheService
	usage     service.UsageService
	catalogue service.CatalogueService
}

func NewTranslationHandler(
	resolver service.ResolverService,
	cache service.CacheService,
	usage service.UsageService,
	catalogue service.CatalogueService,
) *TranslationHandler {
	return &TranslationHandler{
		resolver:  resolver,
		cache:     cache,
		usage:     usage,
		catalogue: catalogue,
	}
}

func (h *TranslationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/resolve", h.Resolve)
	g.GET("/bundles/:locale", h.GetBundle)
	g.GET("/categories/:category/translations", h.GetByCategory)
	g.GET("/search", h.Search)
	g.GET("/keys", h.ListKeys)
	g.POST("/usage", h.RecordUsage)
	g.GET("/usage", h.UsageStats)
}

func (h *TranslationHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/cache", h.ListCacheEntries)
	g.POST("/cache/invalidate", h.Invalidate)
}

type resolveResponse struct {
	Key    string `json:"key"`
	Locale string `json:"locale"`
	Value  string `json:"value"`
}

// Resolve looks up a single key. Variables arrive as var.<name> query
// params; only whitelisted names are substituted. Never returns an error
// status for a missing key.
func (h *TranslationHandler) Resolve(c echo.Context) error {
	keyName := c.QueryParam("key")
	locale := c.QueryParam("locale")
	if keyName == "" || locale == "" {
		return Error(c, http.StatusBadRequest, "key and locale are required")
	}

	vars := make(map[string]string)
	for name, values := range c.QueryParams() {
		if strings.HasPrefix(name, "var.") && len(values) > 0 {
			vars[strings.TrimPrefix(name, "var.")] = values[0]
		}
	}

	value := h.resolver.Resolve(c.Request().Context(), keyName, locale, vars, c.QueryParam("fallback"))
	return c.JSON(http.StatusOK, resolveResponse{Key: keyName, Locale: locale, Value: value})
}

func (h *TranslationHandler) GetBundle(c echo.Context) error {
	locale := c.Param("locale")
	namespace := c.QueryParam("namespace")

	bundle, err := h.cache.GetBundle(c.Request().Context(), locale, namespace)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, bundle)
}

type categoryTranslationResponse struct {
	KeyName               string   `json:"keyName"`
	Value                 string   `json:"value"`
	ICUMessage            *string  `json:"icuMessage,omitempty"`
	InterpolationVars     []string `json:"interpolationVars"`
	SupportsPluralization bool     `json:"supportsPluralization"`
}

func (h *TranslationHandler) GetByCategory(c echo.Context) error {
	category := c.Param("category")
	locale := c.QueryParam("locale")

	translations, err := h.resolver.GetByCategory(c.Request().Context(), category, locale)
	if err != nil {
		return writeServiceError(c, err)
	}

	resp := make([]categoryTranslationResponse, 0, len(translations))
	for _, t := range translations {
		resp = append(resp, categoryTranslationResponse{
			KeyName:               t.KeyName,
			Value:                 t.Value,
			ICUMessage:            t.ICUMessage,
			InterpolationVars:     t.InterpolationVars,
			SupportsPluralization: t.SupportsPluralization,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type searchResultResponse struct {
	KeyName  string  `json:"keyName"`
	Category string  `json:"category"`
	Value    string  `json:"value"`
	Rank     float64 `json:"rank"`
}

func (h *TranslationHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	locale := c.QueryParam("locale")

	var categories []string
	if raw := c.QueryParam("categories"); raw != "" {
		categories = strings.Split(raw, ",")
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	results, err := h.resolver.Search(c.Request().Context(), query, locale, categories, limit)
	if err != nil {
		return writeServiceError(c, err)
	}

	resp := make([]searchResultResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, searchResultResponse{
			KeyName:  r.KeyName,
			Category: r.Category,
			Value:    r.Value,
			Rank:     r.Rank,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type keyResponse struct {
	KeyName               string   `json:"keyName"`
	Category              string   `json:"category"`
	Namespace             string   `json:"namespace"`
	InterpolationVars     []string `json:"interpolationVars"`
	SupportsPluralization bool     `json:"supportsPluralization"`
	Priority              int      `json:"priority"`
}

func (h *TranslationHandler) ListKeys(c echo.Context) error {
	keys, err := h.catalogue.ListKeys(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}

	resp := make([]keyResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, keyResponse{
			KeyName:               k.KeyName,
			Category:              k.Category,
			Namespace:             k.Namespace,
			InterpolationVars:     k.InterpolationVars,
			SupportsPluralization: k.SupportsPluralization,
			Priority:              k.Priority,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type recordUsageRequest struct {
	Key        string   `json:"key"`
	Locale     string   `json:"locale"`
	LoadTimeMs *float64 `json:"loadTimeMs,omitempty"`
}

func (h *TranslationHandler) RecordUsage(c echo.Context) error {
	var req recordUsageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid body")
	}
	if req.Key == "" || req.Locale == "" {
		return Error(c, http.StatusBadRequest, "key and locale are required")
	}

	if err := h.usage.Record(c.Request().Context(), req.Key, req.Locale, req.LoadTimeMs); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type usageStatResponse struct {
	KeyID         string  `json:"keyId"`
	Locale        string  `json:"locale"`
	Day           string  `json:"day"`
	ViewCount     int64   `json:"viewCount"`
	TotalRequests int64   `json:"totalRequests"`
	AvgLoadTimeMs float64 `json:"avgLoadTimeMs"`
}

func (h *TranslationHandler) UsageStats(c echo.Context) error {
	locale := c.QueryParam("locale")
	if locale == "" {
		return Error(c, http.StatusBadRequest, "locale is required")
	}

	stats, err := h.usage.StatsForDay(c.Request().Context(), locale, c.QueryParam("day"))
	if err != nil {
		return writeServiceError(c, err)
	}

	resp := make([]usageStatResponse, 0, len(stats))
	for _, s := range stats {
		resp = append(resp, usageStatResponse{
			KeyID:         strconv.FormatInt(s.KeyID, 10),
			Locale:        s.Locale,
			Day:           s.Day,
			ViewCount:     s.ViewCount,
			TotalRequests: s.TotalRequests,
			AvgLoadTimeMs: s.AvgLoadTimeMs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type cacheEntryResponse struct {
	Locale             string  `json:"locale"`
	Namespace          string  `json:"namespace"`
	Version            int64   `json:"version"`
	GeneratedAt        string  `json:"generatedAt"`
	ExpiresAt          string  `json:"expiresAt"`
	GenerationTimeMs   int64   `json:"generationTimeMs"`
	IsValid            bool    `json:"isValid"`
	InvalidatedAt      *string `json:"invalidatedAt,omitempty"`
	InvalidationReason *string `json:"invalidationReason,omitempty"`
}

func (h *TranslationHandler) ListCacheEntries(c echo.Context) error {
	entries, err := h.cache.ListEntries(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}

	resp := make([]cacheEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := cacheEntryResponse{
			Locale:             e.Locale,
			Namespace:          e.Namespace,
			Version:            e.Version,
			GeneratedAt:        e.GeneratedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
			ExpiresAt:          e.ExpiresAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
			GenerationTimeMs:   e.GenerationTimeMs,
			IsValid:            e.IsValid,
			InvalidationReason: e.InvalidationReason,
		}
		if e.InvalidatedAt != nil {
			formatted := e.InvalidatedAt.Format("2006-01-02T15:04:05.999999999Z07:00")
			item.InvalidatedAt = &formatted
		}
		resp = append(resp, item)
	}
	return c.JSON(http.StatusOK, resp)
}

type invalidateRequest struct {
	Locale    *string `json:"locale,omitempty"`
	Namespace *string `json:"namespace,omitempty"`
	Reason    string  `json:"reason"`
}

type invalidateResponse struct {
	Affected int64 `json:"affected"`
}

func (h *TranslationHandler) Invalidate(c echo.Context) error {
	var req invalidateRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid body")
	}
	if req.Reason == "" {
		req.Reason = "manual invalidation"
	}

	affected, err := h.cache.Invalidate(c.Request().Context(), req.Locale, req.Namespace, req.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, invalidateResponse{Affected: affected})
}
