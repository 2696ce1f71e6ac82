package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS translation_keys (
  id INTEGER PRIMARY KEY,
  key_name TEXT NOT NULL UNIQUE,
  category TEXT NOT NULL DEFAULT '',
  namespace TEXT NOT NULL DEFAULT '',
  description TEXT,
  interpolation_vars TEXT NOT NULL DEFAULT '[]',
  supports_pluralization INTEGER NOT NULL DEFAULT 0,
  priority INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_translation_keys_namespace ON translation_keys(namespace);
CREATE INDEX IF NOT EXISTS idx_translation_keys_category ON translation_keys(category);

CREATE TABLE IF NOT EXISTS translations (
  id INTEGER PRIMARY KEY,
  key_id INTEGER NOT NULL,
  locale TEXT NOT NULL,
  value TEXT NOT NULL,
  icu_message TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  word_count INTEGER NOT NULL DEFAULT 0,
  approved_by TEXT,
  approved_at TEXT,
  published_by TEXT,
  published_at TEXT,
  rejected_reason TEXT,
  superseded_at TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY (key_id) REFERENCES translation_keys(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_translations_key_locale ON translations(key_id, locale);
CREATE INDEX IF NOT EXISTS idx_translations_locale_status ON translations(locale, status);

CREATE TABLE IF NOT EXISTS translation_cache (
  id INTEGER PRIMARY KEY,
  locale TEXT NOT NULL,
  namespace TEXT NOT NULL DEFAULT '',
  payload TEXT NOT NULL,
  version INTEGER NOT NULL,
  generated_at TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  generation_time_ms INTEGER NOT NULL DEFAULT 0,
  is_valid INTEGER NOT NULL DEFAULT 1,
  invalidated_at TEXT,
  invalidation_reason TEXT,
  UNIQUE (locale, namespace)
);

CREATE TABLE IF NOT EXISTS usage_stats (
  id INTEGER PRIMARY KEY,
  key_id INTEGER NOT NULL,
  locale TEXT NOT NULL,
  day TEXT NOT NULL,
  view_count INTEGER NOT NULL DEFAULT 0,
  total_requests INTEGER NOT NULL DEFAULT 0,
  avg_load_time_ms REAL NOT NULL DEFAULT 0,
  last_viewed_at TEXT NOT NULL,
  UNIQUE (key_id, locale, day),
  FOREIGN KEY (key_id) REFERENCES translation_keys(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS translations_fts USING fts5(
  value,
  key_name,
  description,
  tokenize = 'unicode61'
);

CREATE TRIGGER IF NOT EXISTS translations_ai AFTER INSERT ON translations BEGIN
  INSERT INTO translations_fts(rowid, value, key_name, description)
  SELECT new.id, new.value, k.key_name, COALESCE(k.description, '')
  FROM translation_keys k WHERE k.id = new.key_id;
END;

CREATE TRIGGER IF NOT EXISTS translations_ad AFTER DELETE ON translations BEGIN
  INSERT INTO translations_fts(translations_fts, rowid, value, key_name, description)
  SELECT 'delete', old.id, old.value, k.key_name, COALESCE(k.description, '')
  FROM translation_keys k WHERE k.id = old.key_id;
END;

CREATE TRIGGER IF NOT EXISTS translations_au AFTER UPDATE OF value ON translations BEGIN
  INSERT INTO translations_fts(translations_fts, rowid, value, key_name, description)
  SELECT 'delete', old.id, old.value, k.key_name, COALESCE(k.description, '')
  FROM translation_keys k WHERE k.id = old.key_id;
  INSERT INTO translations_fts(rowid, value, key_name, description)
  SELECT new.id, new.value, k.key_name, COALESCE(k.description, '')
  FROM translation_keys k WHERE k.id = new.key_id;
END;
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: one published row per (key_id, locale), enforced structurally.
	// A racing publish hits this index instead of producing two published rows.
	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_translations_one_published
		ON translations(key_id, locale) WHERE status = 'published'`); err != nil {
		return fmt.Errorf("create idx_translations_one_published: %w", err)
	}

	// Migration 2: add superseded_by column to translations if not exists
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('translations') WHERE name = 'superseded_by'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check superseded_by column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE translations ADD COLUMN superseded_by INTEGER`); err != nil {
			return fmt.Errorf("add superseded_by column: %w", err)
		}
	}

	// Migration 3: index for staleness scans over cache rows
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_translation_cache_valid
		ON translation_cache(is_valid, expires_at)`); err != nil {
		return fmt.Errorf("create idx_translation_cache_valid: %w", err)
	}

	return nil
}
