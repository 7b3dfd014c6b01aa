package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/repository"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

// RegisterEnrollmentWithPaymentRequest describes the paired creation payload.
type RegisterEnrollmentWithPaymentRequest struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	ClassID   int64   `json:"class_id" validate:"required,gt=0"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// RegisterReviewRequest describes a review registration payload.
type RegisterReviewRequest struct {
	EnrollmentID int64  `json:"enrollment_id" validate:"required,gt=0"`
	Rating       int16  `json:"rating" validate:"required,min=1,max=5"`
	Content      string `json:"content" validate:"required"`
}

// CoordinatorService orchestrates every write that spans more than one store
// or carries a cross-entity precondition. It owns the transaction lifecycle:
// stores are re-bound onto the handle via WithTx and never commit themselves.
//
// Deleting a payment also deletes its enrollment and reviews. The dependent
// destroying its parent is a deliberate product decision carried over from the
// ledger's original rules, not an oversight.
type CoordinatorService struct {
	db          *sqlx.DB
	enrollments *repository.EnrollmentRepository
	payments    *repository.PaymentRepository
	reviews     *repository.ReviewRepository
	cache       *repository.CacheRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCoordinatorService constructs the coordinator.
func NewCoordinatorService(db *sqlx.DB, enrollments *repository.EnrollmentRepository, payments *repository.PaymentRepository, reviews *repository.ReviewRepository, cache *repository.CacheRepository, validate *validator.Validate, logger *zap.Logger) *CoordinatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoordinatorService{db: db, enrollments: enrollments, payments: payments, reviews: reviews, cache: cache, validator: validate, logger: logger}
}

// RegisterEnrollmentWithPayment atomically creates an enrollment and its
// payment. The enrollment id is only known after the first insert, so the two
// inserts are sequenced inside one transaction; if either fails nothing is
// persisted.
func (s *CoordinatorService) RegisterEnrollmentWithPayment(ctx context.Context, req RegisterEnrollmentWithPaymentRequest) (*models.Enrollment, *models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	enrollment := &models.Enrollment{StudentID: req.StudentID, ClassID: req.ClassID}
	if err := s.enrollments.WithTx(tx).Create(ctx, enrollment); err != nil {
		s.logger.Warn("enrollment insert failed, rolling back group", zap.Int64("student_id", req.StudentID), zap.Int64("class_id", req.ClassID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	payment := &models.Payment{Amount: req.Amount, EnrollmentID: enrollment.ID}
	if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
		s.logger.Warn("payment insert failed, rolling back group", zap.Int64("enrollment_id", enrollment.ID), zap.Error(err))
		if isUniqueViolation(err) {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already has an active payment")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed for enrollment registration", zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment registration")
	}
	committed = true

	s.invalidateCaches(ctx, cacheKeyEnrollments, cacheKeyPayments)
	return enrollment, payment, nil
}

// RegisterReview inserts a review after checking that the referenced
// enrollment is still active. A single row is written, so no transaction is
// opened; the activity check is the guard.
func (s *CoordinatorService) RegisterReview(ctx context.Context, req RegisterReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	active, err := s.enrollments.IsActive(ctx, req.EnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment state")
	}
	if !active {
		s.logger.Warn("review registration refused for inactive enrollment", zap.Int64("enrollment_id", req.EnrollmentID))
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
	}

	review := &models.Review{Rating: req.Rating, Content: req.Content, EnrollmentID: req.EnrollmentID}
	if err := s.reviews.Create(ctx, review); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already has an active review")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	s.invalidateCaches(ctx, cacheKeyReviews)
	return review, nil
}

// DeleteEnrollment soft deletes an enrollment together with every payment and
// review referencing it. The enrollment is the root of the dependency graph;
// once it is gone its dependents must not remain pointing at a deleted parent.
func (s *CoordinatorService) DeleteEnrollment(ctx context.Context, id int64) error {
	if _, err := s.enrollments.FindActiveByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("delete requested for unknown enrollment", zap.Int64("enrollment_id", id))
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	payments, err := s.payments.WithTx(tx).SoftDeleteByEnrollment(ctx, id, now)
	if err != nil {
		s.logger.Warn("payment cascade failed, rolling back group", zap.Int64("enrollment_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payments")
	}
	reviews, err := s.reviews.WithTx(tx).SoftDeleteByEnrollment(ctx, id, now)
	if err != nil {
		s.logger.Warn("review cascade failed, rolling back group", zap.Int64("enrollment_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reviews")
	}
	if err := s.enrollments.WithTx(tx).SoftDelete(ctx, id, now); err != nil {
		s.logger.Warn("enrollment delete failed, rolling back group", zap.Int64("enrollment_id", id), zap.Error(err))
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed for enrollment delete", zap.Int64("enrollment_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment delete")
	}
	committed = true

	s.logger.Info("enrollment deleted", zap.Int64("enrollment_id", id), zap.Int64("payments", payments), zap.Int64("reviews", reviews))
	s.invalidateCaches(ctx, cacheKeyEnrollments, cacheKeyPayments, cacheKeyReviews)
	return nil
}

// DeletePayment soft deletes a payment and cascades to the enrollment it
// references and that enrollment's reviews.
func (s *CoordinatorService) DeletePayment(ctx context.Context, id int64) error {
	payment, err := s.payments.FindActiveByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("delete requested for unknown payment", zap.Int64("payment_id", id))
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	enrollmentID := payment.EnrollmentID

	now := time.Now().UTC()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	if err := s.payments.WithTx(tx).SoftDelete(ctx, id, now); err != nil {
		s.logger.Warn("payment delete failed, rolling back group", zap.Int64("payment_id", id), zap.Error(err))
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	reviews, err := s.reviews.WithTx(tx).SoftDeleteByEnrollment(ctx, enrollmentID, now)
	if err != nil {
		s.logger.Warn("review cascade failed, rolling back group", zap.Int64("enrollment_id", enrollmentID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reviews")
	}
	if err := s.enrollments.WithTx(tx).SoftDelete(ctx, enrollmentID, now); err != nil {
		s.logger.Warn("enrollment cascade failed, rolling back group", zap.Int64("enrollment_id", enrollmentID), zap.Error(err))
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed for payment delete", zap.Int64("payment_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit payment delete")
	}
	committed = true

	s.logger.Info("payment deleted with cascade", zap.Int64("payment_id", id), zap.Int64("enrollment_id", enrollmentID), zap.Int64("reviews", reviews))
	s.invalidateCaches(ctx, cacheKeyEnrollments, cacheKeyPayments, cacheKeyReviews)
	return nil
}

func (s *CoordinatorService) invalidateCaches(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.cache.DeleteByPattern(ctx, key+"*"); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation, e.g. a second active payment for the same enrollment.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}
