package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lexio/internal/model"
	"lexio/internal/snowflake"
)

// KeyRepository reads the translation key catalogue. Keys are reference
// data: the runtime core never mutates them, Upsert exists for catalogue
// loading only.
type KeyRepository interface {
	GetByID(ctx context.Context, id int64) (model.TranslationKey, error)
	GetByName(ctx context.Context, keyName string) (*model.TranslationKey, error)
	List(ctx context.Context) ([]model.TranslationKey, error)
	Upsert(ctx context.Context, key model.TranslationKey) (model.TranslationKey, error)
}

type keyRepository struct {
	db dbtx
}

func NewKeyRepository(db dbtx) KeyRepository {
	return &keyRepository{db: db}
}

const keyColumns = `id, key_name, category, namespace, description, interpolation_vars, supports_pluralization, priority, is_active, created_at, updated_at`

func (r *keyRepository) GetByID(ctx context.Context, id int64) (model.TranslationKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM translation_keys WHERE id = ?`, id)
	return scanKey(row)
}

func (r *keyRepository) GetByName(ctx context.Context, keyName string) (*model.TranslationKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM translation_keys WHERE key_name = ?`, keyName)
	key, err := scanKey(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find key: %w", err)
	}
	return &key, nil
}

func (r *keyRepository) List(ctx context.Context) ([]model.TranslationKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+keyColumns+` FROM translation_keys ORDER BY key_name`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []model.TranslationKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}

	return keys, nil
}

func (r *keyRepository) Upsert(ctx context.Context, key model.TranslationKey) (model.TranslationKey, error) {
	id := snowflake.NextID()
	now := time.Now().UTC()

	vars, err := json.Marshal(key.InterpolationVars)
	if err != nil {
		return model.TranslationKey{}, fmt.Errorf("marshal interpolation vars: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO translation_keys (id, key_name, category, namespace, description, interpolation_vars, supports_pluralization, priority, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key_name) DO UPDATE SET
		   category = excluded.category,
		   namespace = excluded.namespace,
		   description = excluded.description,
		   interpolation_vars = excluded.interpolation_vars,
		   supports_pluralization = excluded.supports_pluralization,
		   priority = excluded.priority,
		   is_active = excluded.is_active,
		   updated_at = excluded.updated_at`,
		id,
		key.KeyName,
		key.Category,
		key.Namespace,
		nullableString(key.Description),
		string(vars),
		boolToInt(key.SupportsPluralization),
		key.Priority,
		boolToInt(key.IsActive),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.TranslationKey{}, fmt.Errorf("upsert key: %w", err)
	}

	stored, err := r.GetByName(ctx, key.KeyName)
	if err != nil {
		return model.TranslationKey{}, err
	}
	return *stored, nil
}

func scanKey(scanner interface {
	Scan(dest ...interface{}) error
}) (model.TranslationKey, error) {
	var k model.TranslationKey
	var description sql.NullString
	var vars string
	var supportsPlural, isActive int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&k.ID,
		&k.KeyName,
		&k.Category,
		&k.Namespace,
		&description,
		&vars,
		&supportsPlural,
		&k.Priority,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.TranslationKey{}, err
	}

	if description.Valid {
		k.Description = &description.String
	}
	if err := json.Unmarshal([]byte(vars), &k.InterpolationVars); err != nil {
		return model.TranslationKey{}, fmt.Errorf("parse interpolation vars: %w", err)
	}
	k.SupportsPluralization = supportsPlural == 1
	k.IsActive = isActive == 1
	k.CreatedAt, _ = parseTime(createdAt)
	k.UpdatedAt, _ = parseTime(updatedAt)

	return k, nil
}
