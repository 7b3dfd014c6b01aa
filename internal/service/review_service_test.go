package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type mockReviewRepo struct {
	reviews map[int64]models.Review
	deleted []int64
}

func (m *mockReviewRepo) ListActive(ctx context.Context) ([]models.Review, error) {
	var list []models.Review
	for _, r := range m.reviews {
		list = append(list, r)
	}
	return list, nil
}

func (m *mockReviewRepo) FindActiveByID(ctx context.Context, id int64) (*models.Review, error) {
	if r, ok := m.reviews[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReviewRepo) Update(ctx context.Context, review *models.Review) error {
	if _, ok := m.reviews[review.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := m.reviews[review.ID]
	stored.Rating = review.Rating
	stored.Content = review.Content
	m.reviews[review.ID] = stored
	return nil
}

func (m *mockReviewRepo) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	if _, ok := m.reviews[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.reviews, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestReviewServiceDelete(t *testing.T) {
	repo := &mockReviewRepo{reviews: map[int64]models.Review{
		1: {ID: 1, Rating: 5, Content: "good", EnrollmentID: 2, Status: models.RecordStatusActive},
	}}
	cache := newMockCache()
	svc := NewReviewService(repo, cache, time.Minute, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.Equal(t, []int64{1}, repo.deleted)
	require.NotEmpty(t, cache.invalidated)
}

func TestReviewServiceDeleteAlreadyDeleted(t *testing.T) {
	repo := &mockReviewRepo{reviews: map[int64]models.Review{}}
	svc := NewReviewService(repo, newMockCache(), time.Minute, nil, zap.NewNop())

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}

func TestReviewServiceUpdateValidation(t *testing.T) {
	repo := &mockReviewRepo{reviews: map[int64]models.Review{
		1: {ID: 1, Rating: 3, Content: "ok", EnrollmentID: 2},
	}}
	svc := NewReviewService(repo, newMockCache(), time.Minute, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), 1, UpdateReviewRequest{Rating: 9, Content: "too high"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
}
