package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments. It is bound to an
// sqlx execution context so the same store can run against the pool or, via
// WithTx, inside a transaction owned by the coordinator. The repository never
// begins or commits transactions itself.
type EnrollmentRepository struct {
	ext sqlx.ExtContext
}

// NewEnrollmentRepository constructs the repository against the shared pool.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{ext: db}
}

// WithTx returns a copy of the repository bound to the given transaction handle.
func (r *EnrollmentRepository) WithTx(tx *sqlx.Tx) *EnrollmentRepository {
	return &EnrollmentRepository{ext: tx}
}

// ListActive returns all enrollments that have not been soft deleted.
func (r *EnrollmentRepository) ListActive(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT enrollment_id, student_id, class_id, status, created_at, updated_at, deleted_at FROM enrollments WHERE status = $1 ORDER BY enrollment_id`
	var enrollments []models.Enrollment
	if err := sqlx.SelectContext(ctx, r.ext, &enrollments, query, models.RecordStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindActiveByID returns an active enrollment by its ID.
func (r *EnrollmentRepository) FindActiveByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	const query = `SELECT enrollment_id, student_id, class_id, status, created_at, updated_at, deleted_at FROM enrollments WHERE enrollment_id = $1 AND status = $2`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.ext, &enrollment, query, id, models.RecordStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IsActive reports whether an active enrollment with the given ID exists.
// Side-effect free; the coordinator uses it as a precondition gate before
// inserting dependent rows.
func (r *EnrollmentRepository) IsActive(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE enrollment_id = $1 AND status = $2 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.ext, &exists, query, id, models.RecordStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment and assigns its generated identifier.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.Status = models.RecordStatusActive

	const query = `INSERT INTO enrollments (student_id, class_id, status, created_at) VALUES ($1, $2, $3, $4) RETURNING enrollment_id`
	if err := sqlx.GetContext(ctx, r.ext, &enrollment.ID, query, enrollment.StudentID, enrollment.ClassID, enrollment.Status, enrollment.CreatedAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update modifies the student and class references of an active enrollment.
// Returns sql.ErrNoRows when no active row matched.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	const query = `UPDATE enrollments SET student_id = $2, class_id = $3, updated_at = $4 WHERE enrollment_id = $1 AND status = $5`
	res, err := r.ext.ExecContext(ctx, query, enrollment.ID, enrollment.StudentID, enrollment.ClassID, now, models.RecordStatusActive)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	enrollment.UpdatedAt = &now
	return nil
}

// SoftDelete marks an active enrollment as deleted. Returns sql.ErrNoRows when
// no active row matched, so deleting an already deleted enrollment fails
// instead of silently succeeding a second time.
func (r *EnrollmentRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4`
	res, err := r.ext.ExecContext(ctx, query, id, models.RecordStatusDeleted, deletedAt, models.RecordStatusActive)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
