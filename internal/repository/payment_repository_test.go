package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
)

func TestPaymentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments (amount, status, created_at, enrollment_id) VALUES ($1, $2, $3, $4) RETURNING payment_id")).
		WithArgs(150.0, models.RecordStatusActive, sqlmock.AnyArg(), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id"}).AddRow(int64(7)))

	payment := &models.Payment{Amount: 150.0, EnrollmentID: 1}
	err := repo.Create(context.Background(), payment)
	require.NoError(t, err)
	require.Equal(t, int64(7), payment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySoftDeleteZeroRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	deletedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2, updated_at = $3, deleted_at = $3 WHERE payment_id = $1 AND status = $4")).
		WithArgs(int64(3), models.RecordStatusDeleted, deletedAt, models.RecordStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), 3, deletedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySoftDeleteByEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	deletedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4")).
		WithArgs(int64(1), models.RecordStatusDeleted, deletedAt, models.RecordStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.SoftDeleteByEnrollment(context.Background(), 1, deletedAt)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySoftDeleteByEnrollmentNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	deletedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4")).
		WithArgs(int64(9), models.RecordStatusDeleted, deletedAt, models.RecordStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.SoftDeleteByEnrollment(context.Background(), 9, deletedAt)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
