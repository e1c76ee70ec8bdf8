package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/marksvc/marks-api/internal/models"
)

// UploadRepository tracks processed upload files for the admin registry.
type UploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository constructs an UploadRepository.
func NewUploadRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Record stores (or refreshes) a registry entry after a file finishes
// processing. Re-uploading a file with the same name replaces its entry.
func (r *UploadRepository) Record(ctx context.Context, file *models.UploadFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.ModifiedAt.IsZero() {
		file.ModifiedAt = time.Now().UTC()
	}
	const query = `INSERT INTO upload_files (id, name, size_bytes, uploaded_by, modified_at, rows_total, rows_succeeded, rows_failed)
        VALUES (:id, :name, :size_bytes, :uploaded_by, :modified_at, :rows_total, :rows_succeeded, :rows_failed)
        ON CONFLICT (name)
        DO UPDATE SET size_bytes = EXCLUDED.size_bytes, uploaded_by = EXCLUDED.uploaded_by, modified_at = EXCLUDED.modified_at,
            rows_total = EXCLUDED.rows_total, rows_succeeded = EXCLUDED.rows_succeeded, rows_failed = EXCLUDED.rows_failed`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// List returns registry entries, most recent first.
func (r *UploadRepository) List(ctx context.Context) ([]models.UploadFile, error) {
	const query = `SELECT id, name, size_bytes, uploaded_by, modified_at, rows_total, rows_succeeded, rows_failed
        FROM upload_files ORDER BY modified_at DESC`
	var files []models.UploadFile
	if err := r.db.SelectContext(ctx, &files, query); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return files, nil
}

// DeleteByName removes a registry entry, reporting whether it existed.
func (r *UploadRepository) DeleteByName(ctx context.Context, name string) (bool, error) {
	const query = `DELETE FROM upload_files WHERE name = $1`
	res, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return false, fmt.Errorf("delete upload: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete upload result: %w", err)
	}
	return affected > 0, nil
}
