package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

type mockStaffRepo struct {
	staff     *models.Staff
	findErr   error
	insertErr error
	inserted  *models.Staff
}

func (m *mockStaffRepo) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.staff, nil
}

func (m *mockStaffRepo) Insert(ctx context.Context, staff *models.Staff) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = staff
	return nil
}

func newAuthService(repo *mockStaffRepo, expiry time.Duration) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: expiry,
		Issuer:      "marks-api",
	})
}

func staffFixture(t *testing.T, password string) *models.Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Staff{ID: "1", Email: "staff@school.edu", PasswordHash: string(hash), Role: models.RoleStaff}
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockStaffRepo{staff: staffFixture(t, "password123")}
	svc := newAuthService(repo, time.Hour)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "Staff@School.edu", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "staff@school.edu", res.Email)
	assert.Equal(t, models.RoleStaff, res.Role)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "staff@school.edu", claims.Email)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestLoginUniformFailure(t *testing.T) {
	wrongPassword := newAuthService(&mockStaffRepo{staff: staffFixture(t, "password123")}, time.Hour)
	unknownEmail := newAuthService(&mockStaffRepo{findErr: sql.ErrNoRows}, time.Hour)

	_, err1 := wrongPassword.Login(context.Background(), models.LoginRequest{Email: "staff@school.edu", Password: "nope-nope"})
	_, err2 := unknownEmail.Login(context.Background(), models.LoginRequest{Email: "ghost@school.edu", Password: "password123"})

	require.Error(t, err1)
	require.Error(t, err2)
	// Unknown email and wrong password must be indistinguishable.
	assert.Equal(t, err1, err2)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err1).Code)
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	svc := newAuthService(&mockStaffRepo{}, time.Hour)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenExpired(t *testing.T) {
	repo := &mockStaffRepo{staff: staffFixture(t, "password123")}
	svc := newAuthService(repo, -time.Minute)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@school.edu", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenForged(t *testing.T) {
	repo := &mockStaffRepo{staff: staffFixture(t, "password123")}
	issuer := newAuthService(repo, time.Hour)
	verifier := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "a-different-secret",
		TokenExpiry: time.Hour,
		Issuer:      "marks-api",
	})

	res, err := issuer.Login(context.Background(), models.LoginRequest{Email: "staff@school.edu", Password: "password123"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(res.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)

	_, err = verifier.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestCreateStaff(t *testing.T) {
	repo := &mockStaffRepo{}
	svc := newAuthService(repo, time.Hour)

	staff, err := svc.CreateStaff(context.Background(), models.CreateStaffRequest{
		Email:    "  New.Admin@School.edu ",
		Password: "password123",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.admin@school.edu", staff.Email)
	assert.Equal(t, models.RoleAdmin, staff.Role)
	assert.NotEqual(t, "password123", staff.PasswordHash)
	require.NotNil(t, repo.inserted)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.inserted.PasswordHash), []byte("password123")))
}

func TestCreateStaffValidation(t *testing.T) {
	svc := newAuthService(&mockStaffRepo{}, time.Hour)

	_, err := svc.CreateStaff(context.Background(), models.CreateStaffRequest{Email: "a@b.c", Password: "short", Role: models.RoleStaff})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateStaff(context.Background(), models.CreateStaffRequest{Email: "a@b.c", Password: "password123", Role: "superuser"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateStaffDuplicateEmail(t *testing.T) {
	repo := &mockStaffRepo{insertErr: appErrors.ErrDuplicateEmail}
	svc := newAuthService(repo, time.Hour)

	_, err := svc.CreateStaff(context.Background(), models.CreateStaffRequest{
		Email:    "staff@school.edu",
		Password: "password123",
		Role:     models.RoleStaff,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)
}
