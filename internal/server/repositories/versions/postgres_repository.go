package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

const versionColumns = `id, file_id, digest, size, encrypted, created_at`

func scanVersion(row interface{ Scan(...any) error }) (*models.Version, error) {
	v := &models.Version{}
	if err := row.Scan(&v.ID, &v.FileID, &v.Digest, &v.Size, &v.Encrypted, &v.CreatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *PostgresRepository) Create(ctx context.Context, version *models.Version) error {
	query := `
		INSERT INTO versions (id, file_id, digest, size, encrypted)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		version.ID, version.FileID, version.Digest, version.Size, version.Encrypted); err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateInPlace(ctx context.Context, version *models.Version) error {
	query := `
		UPDATE versions SET digest=$2, size=$3, encrypted=$4, created_at=now()
		WHERE id=$1
	`
	result, err := r.db.ExecContext(ctx, query,
		version.ID, version.Digest, version.Size, version.Encrypted)
	if err != nil {
		return fmt.Errorf("failed to update version: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Newest(ctx context.Context, fileID string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE file_id=$1 ORDER BY created_at DESC LIMIT 1`
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select version: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE id=$1`
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select version: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE file_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select versions: %w", err)
	}
	defer rows.Close()

	var result []*models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
