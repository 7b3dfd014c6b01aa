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

type enrollmentRepository interface {
	ListActive(ctx context.Context) ([]models.Enrollment, error)
	FindActiveByID(ctx context.Context, id int64) (*models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UpdateEnrollmentRequest describes the mutable enrollment fields.
type UpdateEnrollmentRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
	ClassID   int64 `json:"class_id" validate:"required,gt=0"`
}

// EnrollmentService serves single-entity enrollment reads and updates. Writes
// that touch other entities (paired creation, cascading deletes) belong to the
// CoordinatorService.
type EnrollmentService struct {
	repo      enrollmentRepository
	cache     listCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, cache listCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all active enrollments, served from cache when warm.
func (s *EnrollmentService) List(ctx context.Context) ([]models.Enrollment, error) {
	var cached []models.Enrollment
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKeyEnrollments, &cached); err == nil {
			return cached, nil
		}
	}

	enrollments, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyEnrollments, enrollments, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache enrollments", zap.Error(err))
		}
	}
	return enrollments, nil
}

// Get returns one active enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Update modifies the student and class references of an active enrollment.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	enrollment := &models.Enrollment{ID: id, StudentID: req.StudentID, ClassID: req.ClassID}
	if err := s.repo.Update(ctx, enrollment); err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("update requested for unknown enrollment", zap.Int64("enrollment_id", id))
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, cacheKeyEnrollments+"*"); err != nil {
			s.logger.Warn("failed to invalidate enrollment cache", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}
