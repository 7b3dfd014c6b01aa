package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type reviewRepository interface {
	ListActive(ctx context.Context) ([]models.Review, error)
	FindActiveByID(ctx context.Context, id int64) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
}

// UpdateReviewRequest describes the mutable review fields.
type UpdateReviewRequest struct {
	Rating  int16  `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"required"`
}

// ReviewService serves single-entity review operations. Reviews are leaves in
// the dependency graph, so unlike payments their deletion cascades nowhere and
// stays out of the coordinator.
type ReviewService struct {
	repo      reviewRepository
	cache     listCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(repo reviewRepository, cache listCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all active reviews, served from cache when warm.
func (s *ReviewService) List(ctx context.Context) ([]models.Review, error) {
	var cached []models.Review
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKeyReviews, &cached); err == nil {
			return cached, nil
		}
	}

	reviews, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyReviews, reviews, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache reviews", zap.Error(err))
		}
	}
	return reviews, nil
}

// Get returns one active review.
func (s *ReviewService) Get(ctx context.Context, id int64) (*models.Review, error) {
	review, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	return review, nil
}

// Update modifies rating and content of an active review.
func (s *ReviewService) Update(ctx context.Context, id int64, req UpdateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	review := &models.Review{ID: id, Rating: req.Rating, Content: req.Content}
	if err := s.repo.Update(ctx, review); err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("update requested for unknown review", zap.Int64("review_id", id))
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review")
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete soft deletes a review. Deleting an already deleted review fails with
// not-found rather than silently succeeding again.
func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("delete requested for unknown review", zap.Int64("review_id", id))
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}

	s.invalidate(ctx)
	return nil
}

func (s *ReviewService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cacheKeyReviews+"*"); err != nil {
		s.logger.Warn("failed to invalidate review cache", zap.Error(err))
	}
}
