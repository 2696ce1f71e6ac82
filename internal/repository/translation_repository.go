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

// PublishedValue is one published leaf fed into bundle generation.
type PublishedValue struct {
	KeyName string
	Value   string
}

type TranslationRepository interface {
	Create(ctx context.Context, t model.Translation) (model.Translation, error)
	GetByID(ctx context.Context, id int64) (model.Translation, error)
	GetPublished(ctx context.Context, keyName, locale string) (*model.ResolvedTranslation, error)
	ListPublished(ctx context.Context, locale, namespace string) ([]PublishedValue, error)
	ListByCategory(ctx context.Context, category, locale string) ([]model.ResolvedTranslation, error)
	SetReview(ctx context.Context, id int64) (bool, error)
	SetApproved(ctx context.Context, id int64, approverID string) (bool, error)
	SetRejected(ctx context.Context, id int64, reason string) (bool, error)
	SetPublished(ctx context.Context, id int64, publisherID string) (bool, error)
	SupersedePublished(ctx context.Context, keyID int64, locale string, successorID int64) (int64, error)
	Search(ctx context.Context, query, locale string, categories []string, limit int) ([]model.SearchResult, error)
}

type translationRepository struct {
	db dbtx
}

func NewTranslationRepository(db dbtx) TranslationRepository {
	return &translationRepository{db: db}
}

const translationColumns = `id, key_id, locale, value, icu_message, status, word_count, approved_by, approved_at, published_by, published_at, rejected_reason, superseded_at, superseded_by, created_at, updated_at`

func (r *translationRepository) Create(ctx context.Context, t model.Translation) (model.Translation, error) {
	t.ID = snowflake.NextID()
	now := time.Now().UTC()
	if t.Status == "" {
		t.Status = model.StatusDraft
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO translations (id, key_id, locale, value, icu_message, status, word_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.KeyID,
		t.Locale,
		t.Value,
		nullableString(t.ICUMessage),
		t.Status,
		t.WordCount,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.Translation{}, fmt.Errorf("create translation: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}

func (r *translationRepository) GetByID(ctx context.Context, id int64) (model.Translation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+translationColumns+` FROM translations WHERE id = ?`, id)
	return scanTranslation(row)
}

func (r *translationRepository) GetPublished(ctx context.Context, keyName, locale string) (*model.ResolvedTranslation, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT k.key_name, t.locale, t.value, t.icu_message, k.interpolation_vars, k.supports_pluralization
		 FROM translations t
		 INNER JOIN translation_keys k ON k.id = t.key_id
		 WHERE k.key_name = ? AND t.locale = ? AND t.status = ? AND k.is_active = 1`,
		keyName, locale, model.StatusPublished,
	)
	resolved, err := scanResolved(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get published translation: %w", err)
	}
	return &resolved, nil
}

func (r *translationRepository) ListPublished(ctx context.Context, locale, namespace string) ([]PublishedValue, error) {
	query := `SELECT k.key_name, t.value
		 FROM translations t
		 INNER JOIN translation_keys k ON k.id = t.key_id
		 WHERE t.locale = ? AND t.status = ? AND k.is_active = 1`
	args := []interface{}{locale, model.StatusPublished}

	if namespace != model.NamespaceAll {
		query += ` AND k.namespace = ?`
		args = append(args, namespace)
	}
	query += ` ORDER BY k.key_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	defer rows.Close()

	var values []PublishedValue
	for rows.Next() {
		var v PublishedValue
		if err := rows.Scan(&v.KeyName, &v.Value); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate published: %w", err)
	}

	return values, nil
}

func (r *translationRepository) ListByCategory(ctx context.Context, category, locale string) ([]model.ResolvedTranslation, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT k.key_name, t.locale, t.value, t.icu_message, k.interpolation_vars, k.supports_pluralization
		 FROM translations t
		 INNER JOIN translation_keys k ON k.id = t.key_id
		 WHERE k.category = ? AND t.locale = ? AND t.status = ? AND k.is_active = 1
		 ORDER BY k.key_name`,
		category, locale, model.StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("list by category: %w", err)
	}
	defer rows.Close()

	var result []model.ResolvedTranslation
	for rows.Next() {
		resolved, err := scanResolved(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, resolved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate by category: %w", err)
	}

	return result, nil
}

// SetReview moves a draft row into review. Returns false when the row is
// missing or not a draft.
func (r *translationRepository) SetReview(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE translations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		model.StatusReview, formatTime(time.Now()), id, model.StatusDraft,
	)
	if err != nil {
		return false, fmt.Errorf("set review: %w", err)
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

func (r *translationRepository) SetApproved(ctx context.Context, id int64, approverID string) (bool, error) {
	now := formatTime(time.Now())
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE translations SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		model.StatusApproved, approverID, now, now, id, model.StatusDraft, model.StatusReview,
	)
	if err != nil {
		return false, fmt.Errorf("set approved: %w", err)
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

func (r *translationRepository) SetRejected(ctx context.Context, id int64, reason string) (bool, error) {
	now := formatTime(time.Now())
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE translations SET status = ?, rejected_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.StatusRejected, reason, now, id, model.StatusReview,
	)
	if err != nil {
		return false, fmt.Errorf("set rejected: %w", err)
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

// SetPublished promotes an approved row. The status guard in the WHERE
// clause is the compare-and-swap that gives concurrent publishes a single
// winner.
func (r *translationRepository) SetPublished(ctx context.Context, id int64, publisherID string) (bool, error) {
	now := formatTime(time.Now())
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE translations SET status = ?, published_by = ?, published_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.StatusPublished, publisherID, now, now, id, model.StatusApproved,
	)
	if err != nil {
		return false, fmt.Errorf("set published: %w", err)
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

// SupersedePublished demotes the currently published row for (keyID, locale),
// recording which row replaced it. Returns the number of demoted rows.
func (r *translationRepository) SupersedePublished(ctx context.Context, keyID int64, locale string, successorID int64) (int64, error) {
	now := formatTime(time.Now())
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE translations SET status = ?, superseded_at = ?, superseded_by = ?, updated_at = ?
		 WHERE key_id = ? AND locale = ? AND status = ? AND id != ?`,
		model.StatusSuperseded, now, successorID, now, keyID, locale, model.StatusPublished, successorID,
	)
	if err != nil {
		return 0, fmt.Errorf("supersede published: %w", err)
	}
	return result.RowsAffected()
}

// Search ranks published rows by FTS5 relevance over value/key name/description,
// then fills remaining slots with plain substring matches the FTS query missed.
func (r *translationRepository) Search(ctx context.Context, query, locale string, categories []string, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	categoryClause := ""
	categoryArgs := []interface{}{}
	if len(categories) > 0 {
		placeholders := strings.Repeat("?,", len(categories)-1) + "?"
		categoryClause = ` AND k.category IN (` + placeholders + `)`
		for _, c := range categories {
			categoryArgs = append(categoryArgs, c)
		}
	}

	ftsQuery := `SELECT k.key_name, k.category, t.locale, t.value, bm25(translations_fts) AS rank
		 FROM translations_fts
		 INNER JOIN translations t ON t.id = translations_fts.rowid
		 INNER JOIN translation_keys k ON k.id = t.key_id
		 WHERE translations_fts MATCH ? AND t.locale = ? AND t.status = ? AND k.is_active = 1` +
		categoryClause +
		` ORDER BY rank, k.key_name LIMIT ?`

	args := []interface{}{ftsMatchExpr(query), locale, model.StatusPublished}
	args = append(args, categoryArgs...)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, ftsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search fts: %w", err)
	}
	results, seen, err := collectSearchResults(rows, nil)
	if err != nil {
		return nil, err
	}

	if len(results) < limit {
		likeQuery := `SELECT k.key_name, k.category, t.locale, t.value, 1e9 AS rank
			 FROM translations t
			 INNER JOIN translation_keys k ON k.id = t.key_id
			 WHERE t.locale = ? AND t.status = ? AND k.is_active = 1
			 AND (k.key_name LIKE ? OR t.value LIKE ?)` +
			categoryClause +
			` ORDER BY k.key_name LIMIT ?`

		pattern := "%" + query + "%"
		likeArgs := []interface{}{locale, model.StatusPublished, pattern, pattern}
		likeArgs = append(likeArgs, categoryArgs...)
		likeArgs = append(likeArgs, limit)

		likeRows, err := r.db.QueryContext(ctx, likeQuery, likeArgs...)
		if err != nil {
			return nil, fmt.Errorf("search substring: %w", err)
		}
		extra, _, err := collectSearchResults(likeRows, seen)
		if err != nil {
			return nil, err
		}
		results = append(results, extra...)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ftsMatchExpr quotes the user query so FTS5 treats it as literal terms
// rather than match syntax.
func ftsMatchExpr(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

func collectSearchResults(rows *sql.Rows, seen map[string]bool) ([]model.SearchResult, map[string]bool, error) {
	defer rows.Close()
	if seen == nil {
		seen = make(map[string]bool)
	}

	var results []model.SearchResult
	for rows.Next() {
		var sr model.SearchResult
		if err := rows.Scan(&sr.KeyName, &sr.Category, &sr.Locale, &sr.Value, &sr.Rank); err != nil {
			return nil, nil, err
		}
		if seen[sr.KeyName] {
			continue
		}
		seen[sr.KeyName] = true
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate search results: %w", err)
	}
	return results, seen, nil
}

func scanTranslation(scanner interface {
	Scan(dest ...interface{}) error
}) (model.Translation, error) {
	var t model.Translation
	var icuMessage, approvedBy, publishedBy, rejectedReason sql.NullString
	var approvedAt, publishedAt, supersededAt sql.NullString
	var supersededBy sql.NullInt64
	var createdAt, updatedAt string

	err := scanner.Scan(
		&t.ID,
		&t.KeyID,
		&t.Locale,
		&t.Value,
		&icuMessage,
		&t.Status,
		&t.WordCount,
		&approvedBy,
		&approvedAt,
		&publishedBy,
		&publishedAt,
		&rejectedReason,
		&supersededAt,
		&supersededBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Translation{}, err
	}

	if icuMessage.Valid {
		t.ICUMessage = &icuMessage.String
	}
	if approvedBy.Valid {
		t.ApprovedBy = &approvedBy.String
	}
	if publishedBy.Valid {
		t.PublishedBy = &publishedBy.String
	}
	if rejectedReason.Valid {
		t.RejectedReason = &rejectedReason.String
	}
	t.ApprovedAt = parseTimePtr(approvedAt)
	t.PublishedAt = parseTimePtr(publishedAt)
	t.SupersededAt = parseTimePtr(supersededAt)
	if supersededBy.Valid {
		t.SupersededBy = &supersededBy.Int64
	}
	t.CreatedAt, _ = parseTime(createdAt)
	t.UpdatedAt, _ = parseTime(updatedAt)

	return t, nil
}

func scanResolved(scanner interface {
	Scan(dest ...interface{}) error
}) (model.ResolvedTranslation, error) {
	var rt model.ResolvedTranslation
	var icuMessage sql.NullString
	var vars string
	var supportsPlural int

	err := scanner.Scan(&rt.KeyName, &rt.Locale, &rt.Value, &icuMessage, &vars, &supportsPlural)
	if err != nil {
		return model.ResolvedTranslation{}, err
	}

	if icuMessage.Valid {
		rt.ICUMessage = &icuMessage.String
	}
	if err := json.Unmarshal([]byte(vars), &rt.InterpolationVars); err != nil {
		return model.ResolvedTranslation{}, fmt.Errorf("parse interpolation vars: %w", err)
	}
	rt.SupportsPluralization = supportsPlural == 1

	return rt, nil
}
