package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, user_id, name, status, slug, expiration, created_at, updated_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	var expiration sql.NullTime
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Status, &f.Slug, &expiration, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiration.Valid {
		f.Expiration = &expiration.Time
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, user_id, name, status, slug, expiration)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var expiration any
	if file.Expiration != nil {
		expiration = *file.Expiration
	}
	if _, err := r.db.ExecContext(ctx, query,
		file.ID, file.UserID, file.Name, file.Status, file.Slug, expiration); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id=$1`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByOwnerAndName(ctx context.Context, userID, name string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND name=$2`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, userID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Touch(ctx context.Context, id string, expiration *time.Time) error {
	var (
		query string
		args  []any
	)
	if expiration != nil {
		query = `UPDATE files SET updated_at=now(), expiration=$2 WHERE id=$1`
		args = []any{id, *expiration}
	} else {
		query = `UPDATE files SET updated_at=now() WHERE id=$1`
		args = []any{id}
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to touch file: %w", err)
	}
	return requireOneRow(result)
}

func (r *PostgresRepository) UpdateSlug(ctx context.Context, id, slug string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE files SET slug=$2 WHERE id=$1`, id, slug)
	if err != nil {
		return fmt.Errorf("failed to update slug: %w", err)
	}
	return requireOneRow(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
