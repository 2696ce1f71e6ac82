// Package testutil provides helpers for repository tests backed by a real
// SQLite database.
package testutil

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lexio/internal/db"
	"lexio/internal/model"
	"lexio/internal/snowflake"
)

var snowflakeOnce sync.Once

// NewTestDB opens a fully migrated database in a per-test temp dir.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(1); err != nil {
			t.Fatalf("init snowflake: %v", err)
		}
	})

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// SeedKey inserts a translation key row and returns its ID.
func SeedKey(t *testing.T, database *sql.DB, key model.TranslationKey) int64 {
	t.Helper()

	id := snowflake.NextID()
	vars, err := json.Marshal(key.InterpolationVars)
	require.NoError(t, err)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = database.Exec(
		`INSERT INTO translation_keys (id, key_name, category, namespace, description, interpolation_vars, supports_pluralization, priority, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, key.KeyName, key.Category, key.Namespace, key.Description, string(vars),
		boolToInt(key.SupportsPluralization), key.Priority, now, now,
	)
	require.NoError(t, err)
	return id
}

// SeedTranslation inserts a translation row and returns its ID. An empty
// Status defaults to draft.
func SeedTranslation(t *testing.T, database *sql.DB, tr model.Translation) int64 {
	t.Helper()

	id := snowflake.NextID()
	status := tr.Status
	if status == "" {
		status = model.StatusDraft
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := database.Exec(
		`INSERT INTO translations (id, key_id, locale, value, icu_message, status, word_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, tr.KeyID, tr.Locale, tr.Value, tr.ICUMessage, status, tr.WordCount, now, now,
	)
	require.NoError(t, err)
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
