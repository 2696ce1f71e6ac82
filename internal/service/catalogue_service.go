package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"lexio/internal/logger"
	"lexio/internal/model"
	"lexio/internal/repository"
)

// catalogueEntry is one key definition in the declarative catalogue file.
type catalogueEntry struct {
	KeyName               string   `json:"keyName"`
	Category              string   `json:"category"`
	Namespace             string   `json:"namespace"`
	Description           *string  `json:"description,omitempty"`
	InterpolationVars     []string `json:"interpolationVars,omitempty"`
	SupportsPluralization bool     `json:"supportsPluralization,omitempty"`
	Priority              int      `json:"priority,omitempty"`
}

// CatalogueService loads the translation key catalogue from a JSON file.
// The catalogue replaces hard-coded key seeding; the runtime core treats
// the loaded keys as read-only reference data.
type CatalogueService interface {
	LoadFromFile(ctx context.Context, path string) (int, error)
	ListKeys(ctx context.Context) ([]model.TranslationKey, error)
}

type catalogueService struct {
	keys repository.KeyRepository
}

func NewCatalogueService(keys repository.KeyRepository) CatalogueService {
	return &catalogueService{keys: keys}
}

func (s *catalogueService) LoadFromFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalogue: %w", err)
	}

	var entries []catalogueEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("parse catalogue: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.KeyName == "" {
			continue
		}
		vars := entry.InterpolationVars
		if vars == nil {
			vars = []string{}
		}
		_, err := s.keys.Upsert(ctx, model.TranslationKey{
			KeyName:               entry.KeyName,
			Category:              entry.Category,
			Namespace:             entry.Namespace,
			Description:           entry.Description,
			InterpolationVars:     vars,
			SupportsPluralization: entry.SupportsPluralization,
			Priority:              entry.Priority,
			IsActive:              true,
		})
		if err != nil {
			return loaded, fmt.Errorf("load key %s: %w", entry.KeyName, err)
		}
		loaded++
	}

	logger.Info("catalogue loaded",
		"module", "catalogue", "action", "load", "resource", "key", "result", "ok",
		"path", path, "keys", loaded)
	return loaded, nil
}

func (s *catalogueService) ListKeys(ctx context.Context) ([]model.TranslationKey, error) {
	return s.keys.List(ctx)
}
