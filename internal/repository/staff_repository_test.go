package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestStaffFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}).
		AddRow("1", "staff@school.edu", "hash", string(models.RoleStaff), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, role, created_at FROM staff WHERE email = $1 LIMIT 1")).
		WithArgs("staff@school.edu").
		WillReturnRows(rows)

	staff, err := repo.FindByEmail(context.Background(), "staff@school.edu")
	require.NoError(t, err)
	assert.Equal(t, "staff@school.edu", staff.Email)
	assert.Equal(t, models.RoleStaff, staff.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectQuery("SELECT id, email, password_hash, role, created_at FROM staff").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@school.edu")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectExec("INSERT INTO staff").WillReturnResult(sqlmock.NewResult(1, 1))

	staff := &models.Staff{Email: "new@school.edu", PasswordHash: "hash", Role: models.RoleStaff}
	err := repo.Insert(context.Background(), staff)
	require.NoError(t, err)
	assert.NotEmpty(t, staff.ID)
	assert.False(t, staff.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffInsertDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectExec("INSERT INTO staff").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), &models.Staff{Email: "dup@school.edu", PasswordHash: "hash", Role: models.RoleStaff})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEmail, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
