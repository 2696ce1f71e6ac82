package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lexio/internal/model"
	"lexio/internal/snowflake"
)

type UsageRepository interface {
	Record(ctx context.Context, keyID int64, locale, day string, loadTimeMs *float64) error
	Get(ctx context.Context, keyID int64, locale, day string) (*model.UsageStat, error)
	ListByDay(ctx context.Context, locale, day string) ([]model.UsageStat, error)
}

type usageRepository struct {
	db dbtx
}

func NewUsageRepository(db dbtx) UsageRepository {
	return &usageRepository{db: db}
}

// Record merges one usage event into the (key, locale, day) row in a single
// upsert, so concurrent recorders never lose increments. The running mean is
// recomputed against the pre-update counters; SQLite evaluates every SET
// expression against the original row.
func (r *usageRepository) Record(ctx context.Context, keyID int64, locale, day string, loadTimeMs *float64) error {
	id := snowflake.NextID()
	now := formatTime(time.Now())

	var sample interface{}
	if loadTimeMs != nil {
		sample = *loadTimeMs
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO usage_stats (id, key_id, locale, day, view_count, total_requests, avg_load_time_ms, last_viewed_at)
		 VALUES (?, ?, ?, ?, 1, 1, COALESCE(?, 0), ?)
		 ON CONFLICT(key_id, locale, day) DO UPDATE SET
		   view_count = view_count + 1,
		   total_requests = total_requests + 1,
		   avg_load_time_ms = CASE
		     WHEN ? IS NULL THEN avg_load_time_ms
		     ELSE (avg_load_time_ms * total_requests + ?) / (total_requests + 1)
		   END,
		   last_viewed_at = excluded.last_viewed_at`,
		id, keyID, locale, day, sample, now, sample, sample,
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (r *usageRepository) Get(ctx context.Context, keyID int64, locale, day string) (*model.UsageStat, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, key_id, locale, day, view_count, total_requests, avg_load_time_ms, last_viewed_at
		 FROM usage_stats WHERE key_id = ? AND locale = ? AND day = ?`,
		keyID, locale, day,
	)
	stat, err := scanUsageStat(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get usage stat: %w", err)
	}
	return &stat, nil
}

func (r *usageRepository) ListByDay(ctx context.Context, locale, day string) ([]model.UsageStat, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, key_id, locale, day, view_count, total_requests, avg_load_time_ms, last_viewed_at
		 FROM usage_stats WHERE locale = ? AND day = ? ORDER BY view_count DESC`,
		locale, day,
	)
	if err != nil {
		return nil, fmt.Errorf("list usage stats: %w", err)
	}
	defer rows.Close()

	var stats []model.UsageStat
	for rows.Next() {
		stat, err := scanUsageStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage stats: %w", err)
	}

	return stats, nil
}

func scanUsageStat(scanner interface {
	Scan(dest ...interface{}) error
}) (model.UsageStat, error) {
	var s model.UsageStat
	var lastViewedAt string

	err := scanner.Scan(
		&s.ID,
		&s.KeyID,
		&s.Locale,
		&s.Day,
		&s.ViewCount,
		&s.TotalRequests,
		&s.AvgLoadTimeMs,
		&lastViewedAt,
	)
	if err != nil {
		return model.UsageStat{}, err
	}
	s.LastViewedAt, _ = parseTime(lastViewedAt)

	return s, nil
}
