package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/marksvc/marks-api/internal/models"
)

// MarkRepository handles mark record persistence and row reconciliation.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

const studentUpsertQuery = `INSERT INTO students (register_number, student_name, date_of_birth, created_at, updated_at)
    VALUES (:register_number, :student_name, :date_of_birth, :created_at, :updated_at)
    ON CONFLICT (register_number)
    DO UPDATE SET student_name = EXCLUDED.student_name, date_of_birth = EXCLUDED.date_of_birth, updated_at = EXCLUDED.updated_at`

const markUpsertQuery = `INSERT INTO mark_records (id, register_number, subject_code, marks, uploaded_by, uploaded_at, source_file)
    VALUES (:id, :register_number, :subject_code, :marks, :uploaded_by, :uploaded_at, :source_file)
    ON CONFLICT (register_number, subject_code)
    DO UPDATE SET marks = EXCLUDED.marks, uploaded_by = EXCLUDED.uploaded_by, uploaded_at = EXCLUDED.uploaded_at, source_file = EXCLUDED.source_file`

// Reconcile applies one validated upload row as a single transaction: the
// student upsert followed by the mark upsert. Both statements are atomic
// keyed writes, so concurrent uploads touching the same student cannot
// interleave into a half-written record.
func (r *MarkRepository) Reconcile(ctx context.Context, student *models.Student, mark *models.MarkRecord) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	if mark.UploadedAt.IsZero() {
		mark.UploadedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, studentUpsertQuery, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert student: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, markUpsertQuery, mark); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert mark: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}
	return nil
}

// ListByRegisterNumber returns all marks for a student ordered by subject
// code ascending.
func (r *MarkRepository) ListByRegisterNumber(ctx context.Context, registerNumber string) ([]models.MarkRecord, error) {
	const query = `SELECT id, register_number, subject_code, marks, uploaded_by, uploaded_at, source_file
        FROM mark_records WHERE register_number = $1 ORDER BY subject_code ASC`
	var marks []models.MarkRecord
	if err := r.db.SelectContext(ctx, &marks, query, registerNumber); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}
