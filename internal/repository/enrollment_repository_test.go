package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"enrollment_id", "student_id", "class_id", "status", "created_at", "updated_at", "deleted_at"}).
		AddRow(int64(1), int64(10), int64(20), models.RecordStatusActive, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT enrollment_id, student_id, class_id, status, created_at, updated_at, deleted_at FROM enrollments WHERE status = $1 ORDER BY enrollment_id")).
		WithArgs(models.RecordStatusActive).
		WillReturnRows(rows)

	enrollments, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, int64(1), enrollments[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindActiveByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT enrollment_id, student_id, class_id, status, created_at, updated_at, deleted_at FROM enrollments WHERE enrollment_id = $1 AND status = $2")).
		WithArgs(int64(99), models.RecordStatusActive).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByID(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryIsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE enrollment_id = $1 AND status = $2 LIMIT 1")).
		WithArgs(int64(1), models.RecordStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	active, err := repo.IsActive(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryIsActiveMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE enrollment_id = $1 AND status = $2 LIMIT 1")).
		WithArgs(int64(7), models.RecordStatusActive).
		WillReturnError(sql.ErrNoRows)

	active, err := repo.IsActive(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments (student_id, class_id, status, created_at) VALUES ($1, $2, $3, $4) RETURNING enrollment_id")).
		WithArgs(int64(10), int64(20), models.RecordStatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id"}).AddRow(int64(42)))

	enrollment := &models.Enrollment{StudentID: 10, ClassID: 20}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	require.Equal(t, int64(42), enrollment.ID)
	require.Equal(t, models.RecordStatusActive, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	deletedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4")).
		WithArgs(int64(1), models.RecordStatusDeleted, deletedAt, models.RecordStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), 1, deletedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySoftDeleteZeroRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	deletedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, updated_at = $3, deleted_at = $3 WHERE enrollment_id = $1 AND status = $4")).
		WithArgs(int64(1), models.RecordStatusDeleted, deletedAt, models.RecordStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), 1, deletedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateZeroRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET student_id = $2, class_id = $3, updated_at = $4 WHERE enrollment_id = $1 AND status = $5")).
		WithArgs(int64(5), int64(10), int64(20), sqlmock.AnyArg(), models.RecordStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Enrollment{ID: 5, StudentID: 10, ClassID: 20})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
