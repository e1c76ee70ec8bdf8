package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marksvc/marks-api/internal/models"
)

func TestMarkReconcile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mark_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{
		RegisterNumber: "R001",
		StudentName:    "Anita",
		DateOfBirth:    time.Date(2004, time.March, 12, 0, 0, 0, 0, time.UTC),
	}
	mark := &models.MarkRecord{
		RegisterNumber: "R001",
		SubjectCode:    "MATH101",
		Marks:          88.5,
		UploadedBy:     "staff@school.edu",
		SourceFile:     "marks.csv",
	}

	err := repo.Reconcile(context.Background(), student, mark)
	require.NoError(t, err)
	assert.NotEmpty(t, mark.ID)
	assert.False(t, mark.UploadedAt.IsZero())
	assert.False(t, student.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReconcileRollsBackOnMarkFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mark_records").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	student := &models.Student{RegisterNumber: "R001", StudentName: "Anita", DateOfBirth: time.Now()}
	mark := &models.MarkRecord{RegisterNumber: "R001", SubjectCode: "MATH101", Marks: 50}

	err := repo.Reconcile(context.Background(), student, mark)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkListByRegisterNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "register_number", "subject_code", "marks", "uploaded_by", "uploaded_at", "source_file"}).
		AddRow("1", "R001", "MATH101", 88.5, "staff@school.edu", now, "marks.csv").
		AddRow("2", "R001", "PHY102", 72.0, "staff@school.edu", now, "marks.csv")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY subject_code ASC")).
		WithArgs("R001").
		WillReturnRows(rows)

	marks, err := repo.ListByRegisterNumber(context.Background(), "R001")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, "MATH101", marks[0].SubjectCode)
	assert.Equal(t, 88.5, marks[0].Marks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
