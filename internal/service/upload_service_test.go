package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

type mockUploadStore struct {
	files     []models.UploadFile
	listErr   error
	existed   bool
	deleteErr error
	deleted   string
}

func (m *mockUploadStore) List(ctx context.Context) ([]models.UploadFile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.files, nil
}

func (m *mockUploadStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	m.deleted = name
	return m.existed, nil
}

type mockArtifactStore struct {
	deleted   string
	deleteErr error
}

func (m *mockArtifactStore) Delete(filename string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = filename
	return nil
}

func TestUploadListEmptyIsNotNil(t *testing.T) {
	svc := NewUploadService(&mockUploadStore{}, &mockArtifactStore{}, zap.NewNop())

	files, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestUploadRemove(t *testing.T) {
	store := &mockUploadStore{existed: true}
	artifacts := &mockArtifactStore{}
	svc := NewUploadService(store, artifacts, zap.NewNop())

	err := svc.Remove(context.Background(), "marks.csv")
	require.NoError(t, err)
	assert.Equal(t, "marks.csv", store.deleted)
	assert.Equal(t, "marks.csv", artifacts.deleted)
}

func TestUploadRemoveNotFound(t *testing.T) {
	svc := NewUploadService(&mockUploadStore{existed: false}, &mockArtifactStore{}, zap.NewNop())

	err := svc.Remove(context.Background(), "missing.csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUploadRemoveSanitizesName(t *testing.T) {
	store := &mockUploadStore{existed: true}
	svc := NewUploadService(store, &mockArtifactStore{}, zap.NewNop())

	err := svc.Remove(context.Background(), "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "passwd", store.deleted)

	err = svc.Remove(context.Background(), "...")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadRemoveSurvivesArtifactFailure(t *testing.T) {
	store := &mockUploadStore{existed: true}
	artifacts := &mockArtifactStore{deleteErr: errors.New("disk error")}
	svc := NewUploadService(store, artifacts, zap.NewNop())

	// The registry row is authoritative; a stale artifact is logged, not
	// surfaced.
	err := svc.Remove(context.Background(), "marks.csv")
	require.NoError(t, err)
}
