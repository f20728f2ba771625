package shares

import (
	"context"
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

func (r *PostgresRepository) Upsert(ctx context.Context, share *models.Share) error {
	query := `
		INSERT INTO shares (id, file_id, user_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id, user_id)
		DO UPDATE SET status = EXCLUDED.status
	`
	if _, err := r.db.ExecContext(ctx, query,
		share.ID, share.FileID, share.UserID, share.Status); err != nil {
		return fmt.Errorf("failed to upsert share: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, fileID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shares WHERE file_id=$1 AND user_id=$2`, fileID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.ShareWithUser, error) {
	query := `
		SELECT s.id, s.file_id, s.user_id, s.status,
			u.id, u.name, u.email, u.role, u.image,
			u.pref_public, u.pref_versions, u.pref_extension, u.pref_notification
		FROM shares s
		JOIN users u ON u.id = s.user_id
		WHERE s.file_id=$1
		ORDER BY u.email
	`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.ShareWithUser
	for rows.Next() {
		item := &models.ShareWithUser{}
		err := rows.Scan(
			&item.Share.ID, &item.Share.FileID, &item.Share.UserID, &item.Share.Status,
			&item.User.ID, &item.User.Name, &item.User.Email, &item.User.Role, &item.User.Image,
			&item.User.PrefPublic, &item.User.PrefVersions, &item.User.PrefExtension, &item.User.PrefNotification)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, fileID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM shares WHERE file_id=$1 AND user_id=$2)`,
		fileID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check share: %w", err)
	}
	return exists, nil
}
