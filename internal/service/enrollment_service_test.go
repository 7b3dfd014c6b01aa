package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[int64]models.Enrollment
	listCalls   int
	updated     *models.Enrollment
}

func (m *mockEnrollmentRepo) ListActive(ctx context.Context) ([]models.Enrollment, error) {
	m.listCalls++
	var list []models.Enrollment
	for _, e := range m.enrollments {
		list = append(list, e)
	}
	return list, nil
}

func (m *mockEnrollmentRepo) FindActiveByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	if _, ok := m.enrollments[enrollment.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := m.enrollments[enrollment.ID]
	stored.StudentID = enrollment.StudentID
	stored.ClassID = enrollment.ClassID
	m.enrollments[enrollment.ID] = stored
	m.updated = enrollment
	return nil
}

type mockCache struct {
	store       map[string][]byte
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.store = make(map[string][]byte)
	return nil
}

func TestEnrollmentServiceListCachesResult(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 10, ClassID: 20, Status: models.RecordStatusActive, CreatedAt: time.Now()},
	}}
	cache := newMockCache()
	svc := NewEnrollmentService(repo, cache, time.Minute, nil, zap.NewNop())

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.listCalls, "second list should be served from cache")
}

func TestEnrollmentServiceGetNotFound(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[int64]models.Enrollment{}}
	svc := NewEnrollmentService(repo, newMockCache(), time.Minute, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), 404)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}

func TestEnrollmentServiceUpdate(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 10, ClassID: 20, Status: models.RecordStatusActive},
	}}
	cache := newMockCache()
	svc := NewEnrollmentService(repo, cache, time.Minute, nil, zap.NewNop())

	updated, err := svc.Update(context.Background(), 1, UpdateEnrollmentRequest{StudentID: 11, ClassID: 22})
	require.NoError(t, err)
	require.Equal(t, int64(11), updated.StudentID)
	require.Equal(t, int64(22), updated.ClassID)
	require.NotEmpty(t, cache.invalidated)
}

func TestEnrollmentServiceUpdateUnknown(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[int64]models.Enrollment{}}
	svc := NewEnrollmentService(repo, newMockCache(), time.Minute, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), 9, UpdateEnrollmentRequest{StudentID: 11, ClassID: 22})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}
