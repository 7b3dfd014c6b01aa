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

type paymentRepository interface {
	ListActive(ctx context.Context) ([]models.Payment, error)
	FindActiveByID(ctx context.Context, id int64) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

// UpdatePaymentRequest describes the mutable payment fields. The enrollment
// reference is a foreign key and cannot be re-pointed.
type UpdatePaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentService serves single-entity payment reads and updates. Deletion
// cascades through the CoordinatorService.
type PaymentService struct {
	repo      paymentRepository
	cache     listCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(repo paymentRepository, cache listCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all active payments, served from cache when warm.
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	var cached []models.Payment
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKeyPayments, &cached); err == nil {
			return cached, nil
		}
	}

	payments, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPayments, payments, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache payments", zap.Error(err))
		}
	}
	return payments, nil
}

// Get returns one active payment.
func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Update modifies the amount of an active payment.
func (s *PaymentService) Update(ctx context.Context, id int64, req UpdatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment := &models.Payment{ID: id, Amount: req.Amount}
	if err := s.repo.Update(ctx, payment); err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("update requested for unknown payment", zap.Int64("payment_id", id))
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, cacheKeyPayments+"*"); err != nil {
			s.logger.Warn("failed to invalidate payment cache", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}
