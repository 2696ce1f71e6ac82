package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexio/internal/model"
	"lexio/internal/snowflake"
)

// CacheRepository owns generated bundle snapshots. It is the only writer
// of payloads; invalidation flips validity without deleting rows.
type CacheRepository interface {
	Get(ctx context.Context, locale, namespace string) (*model.CacheEntry, error)
	Upsert(ctx context.Context, entry model.CacheEntry) error
	Invalidate(ctx context.Context, locale, namespace *string, reason string) (int64, error)
	List(ctx context.Context) ([]model.CacheEntry, error)
}

type cacheRepository struct {
	db dbtx
}

func NewCacheRepository(db dbtx) CacheRepository {
	return &cacheRepository{db: db}
}

const cacheColumns = `id, locale, namespace, payload, version, generated_at, expires_at, generation_time_ms, is_valid, invalidated_at, invalidation_reason`

func (r *cacheRepository) Get(ctx context.Context, locale, namespace string) (*model.CacheEntry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+cacheColumns+` FROM translation_cache WHERE locale = ? AND namespace = ?`,
		locale, namespace,
	)
	entry, err := scanCacheEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	return &entry, nil
}

// Upsert replaces every field of the (locale, namespace) row atomically,
// clearing any previous invalidation.
func (r *cacheRepository) Upsert(ctx context.Context, entry model.CacheEntry) error {
	id := snowflake.NextID()

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO translation_cache (id, locale, namespace, payload, version, generated_at, expires_at, generation_time_ms, is_valid, invalidated_at, invalidation_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, NULL, NULL)
		 ON CONFLICT(locale, namespace) DO UPDATE SET
		   payload = excluded.payload,
		   version = excluded.version,
		   generated_at = excluded.generated_at,
		   expires_at = excluded.expires_at,
		   generation_time_ms = excluded.generation_time_ms,
		   is_valid = 1,
		   invalidated_at = NULL,
		   invalidation_reason = NULL`,
		id,
		entry.Locale,
		entry.Namespace,
		string(payload),
		entry.Version,
		formatTime(entry.GeneratedAt),
		formatTime(entry.ExpiresAt),
		entry.GenerationTimeMs,
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Invalidate marks matching valid rows invalid. nil locale or namespace
// matches everything on that dimension. Returns the affected row count.
func (r *cacheRepository) Invalidate(ctx context.Context, locale, namespace *string, reason string) (int64, error) {
	query := `UPDATE translation_cache SET is_valid = 0, invalidated_at = ?, invalidation_reason = ? WHERE is_valid = 1`
	args := []interface{}{formatTime(time.Now()), reason}

	var conditions []string
	if locale != nil {
		conditions = append(conditions, "locale = ?")
		args = append(args, *locale)
	}
	if namespace != nil {
		// A namespace-scoped invalidation also hits the all-namespaces row,
		// which embeds that namespace's keys.
		conditions = append(conditions, "(namespace = ? OR namespace = ?)")
		args = append(args, *namespace, model.NamespaceAll)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("invalidate cache: %w", err)
	}
	return result.RowsAffected()
}

func (r *cacheRepository) List(ctx context.Context) ([]model.CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cacheColumns+` FROM translation_cache ORDER BY locale, namespace`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CacheEntry
	for rows.Next() {
		entry, err := scanCacheEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}

	return entries, nil
}

func scanCacheEntry(scanner interface {
	Scan(dest ...interface{}) error
}) (model.CacheEntry, error) {
	var e model.CacheEntry
	var payload string
	var isValid int
	var generatedAt, expiresAt string
	var invalidatedAt, invalidationReason sql.NullString

	err := scanner.Scan(
		&e.ID,
		&e.Locale,
		&e.Namespace,
		&payload,
		&e.Version,
		&generatedAt,
		&expiresAt,
		&e.GenerationTimeMs,
		&isValid,
		&invalidatedAt,
		&invalidationReason,
	)
	if err != nil {
		return model.CacheEntry{}, err
	}

	if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
		return model.CacheEntry{}, fmt.Errorf("parse payload: %w", err)
	}
	e.IsValid = isValid == 1
	e.GeneratedAt, _ = parseTime(generatedAt)
	e.ExpiresAt, _ = parseTime(expiresAt)
	e.InvalidatedAt = parseTimePtr(invalidatedAt)
	if invalidationReason.Valid {
		e.InvalidationReason = &invalidationReason.String
	}

	return e, nil
}
