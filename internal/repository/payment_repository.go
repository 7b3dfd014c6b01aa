package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-api/internal/models"
)

// PaymentRepository handles persistence of payments. Like the other stores it
// can be re-bound onto a coordinator-owned transaction via WithTx.
type PaymentRepository struct {
	ext sqlx.ExtContext
}

// NewPaymentRepository constructs the repository against the shared pool.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{ext: db}
}

// WithTx returns a copy of the repository bound to the given transaction handle.
func (r *PaymentRepository) WithTx(tx *sqlx.Tx) *PaymentRepository {
	return &PaymentRepository{ext: tx}
}

// ListActive returns all payments that have not been soft deleted.
func (r *PaymentRepository) ListActive(ctx context.Context) ([]models.Payment, error) {
	const query = `SELECT payment_id, amount, status, created_at, updated_at, deleted_at, enrollment_id FROM payments WHERE status = $1 ORDER BY payment_id`
	var payments []models.Payment
	if err := sqlx.SelectContext(ctx, r.ext, &payments, query, models.RecordStatusActive); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// FindActiveByID returns an active payment by its ID.
func (r *PaymentRepository) FindActiveByID(ctx context.Context, id int64) (*models.Payment, error) {
	const query = `SELECT payment_id, amount, status, created_at, updated_at, deleted_at, enrollment_id FROM payments WHERE payment_id = $1 AND status = $2`
	var payment models.Payment
	if err := sqlx.GetContext(ctx, r.ext, &payment, query, id, models.RecordStatusActive); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create persists a new payment and assigns its generated identifier. The
// active-only uniqueness per enrollment is enforced by the schema; a second
// active payment against the same enrollment surfaces as an insert error.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payment.Status = models.RecordStatusActive

	const query = `INSERT INTO payments (amount, status, created_at, enrollment_id) VALUES ($1, $2, $3, $4) RETURNING payment_id`
	if err := sqlx.GetContext(ctx, r.ext, &payment.ID, query, payment.Amount, payment.Status, payment.CreatedAt, payment.EnrollmentID); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update modifies the amount of an active payment. The enrollment reference is
// immutable. Returns sql.ErrNoRows when no active row matched.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	now := time.Now().UTC()
	const query = `UPDATE payments SET amount = $2, updated_at = $3 WHERE payment_id = $1 AND status = $4`
	res, err := r.ext.ExecContext(ctx, query, payment.ID, payment.Amount, now, models.RecordStatusActive)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	payment.UpdatedAt = &now
	return nil
}

// SoftDelete marks an active payment as deleted. Returns sql.ErrNoRows when no
// active row matched.
func (r *PaymentRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE payments SET status = $2, updated_at = $3, deleted_at = $3 WHERE payment_id = $1 AND status = $4`
	res, err := r.ext.ExecContext(ctx, query, id, models.RecordStatusDeleted, deletedAt, models.RecordStatusActive)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete payment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDeleteByEnrollment marks all active payments referencing the enrollment
// as deleted and returns the affected count. Zero is not an error: an
// enrollment may legitimately have no active payment when a cascade runs.
func (r *PaymentRepository) SoftDeleteByEnrollment(ctx context.Context, enrollmentID int64, deletedAt time.Time) (int64, error) {
	const query = `UPDATE payments SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4`
	res, err := r.ext.ExecContext(ctx, query, enrollmentID, models.RecordStatusDeleted, deletedAt, models.RecordStatusActive)
	if err != nil {
		return 0, fmt.Errorf("delete payments by enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete payments by enrollment rows: %w", err)
	}
	return affected, nil
}
