package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-api/internal/models"
)

// ReviewRepository handles persistence of reviews.
type ReviewRepository struct {
	ext sqlx.ExtContext
}

// NewReviewRepository constructs the repository against the shared pool.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{ext: db}
}

// WithTx returns a copy of the repository bound to the given transaction handle.
func (r *ReviewRepository) WithTx(tx *sqlx.Tx) *ReviewRepository {
	return &ReviewRepository{ext: tx}
}

// ListActive returns all reviews that have not been soft deleted.
func (r *ReviewRepository) ListActive(ctx context.Context) ([]models.Review, error) {
	const query = `SELECT review_id, rating, content, status, created_at, updated_at, deleted_at, enrollment_id FROM reviews WHERE status = $1 ORDER BY review_id`
	var reviews []models.Review
	if err := sqlx.SelectContext(ctx, r.ext, &reviews, query, models.RecordStatusActive); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// FindActiveByID returns an active review by its ID.
func (r *ReviewRepository) FindActiveByID(ctx context.Context, id int64) (*models.Review, error) {
	const query = `SELECT review_id, rating, content, status, created_at, updated_at, deleted_at, enrollment_id FROM reviews WHERE review_id = $1 AND status = $2`
	var review models.Review
	if err := sqlx.GetContext(ctx, r.ext, &review, query, id, models.RecordStatusActive); err != nil {
		return nil, err
	}
	return &review, nil
}

// Create persists a new review and assigns its generated identifier.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	review.Status = models.RecordStatusActive

	const query = `INSERT INTO reviews (rating, content, status, created_at, enrollment_id) VALUES ($1, $2, $3, $4, $5) RETURNING review_id`
	if err := sqlx.GetContext(ctx, r.ext, &review.ID, query, review.Rating, review.Content, review.Status, review.CreatedAt, review.EnrollmentID); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Update modifies rating and content of an active review. Returns
// sql.ErrNoRows when no active row matched.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	now := time.Now().UTC()
	const query = `UPDATE reviews SET rating = $2, content = $3, updated_at = $4 WHERE review_id = $1 AND status = $5`
	res, err := r.ext.ExecContext(ctx, query, review.ID, review.Rating, review.Content, now, models.RecordStatusActive)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	review.UpdatedAt = &now
	return nil
}

// SoftDelete marks an active review as deleted. Returns sql.ErrNoRows when no
// active row matched.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE reviews SET status = $2, updated_at = $3, deleted_at = $3 WHERE review_id = $1 AND status = $4`
	res, err := r.ext.ExecContext(ctx, query, id, models.RecordStatusDeleted, deletedAt, models.RecordStatusActive)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDeleteByEnrollment marks all active reviews referencing the enrollment
// as deleted and returns the affected count. Zero is not an error.
func (r *ReviewRepository) SoftDeleteByEnrollment(ctx context.Context, enrollmentID int64, deletedAt time.Time) (int64, error) {
	const query = `UPDATE reviews SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4`
	res, err := r.ext.ExecContext(ctx, query, enrollmentID, models.RecordStatusDeleted, deletedAt, models.RecordStatusActive)
	if err != nil {
		return 0, fmt.Errorf("delete reviews by enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete reviews by enrollment rows: %w", err)
	}
	return affected, nil
}
