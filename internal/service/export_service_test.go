package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type stubEnrollmentSource struct{ rows []models.Enrollment }

func (s *stubEnrollmentSource) ListActive(ctx context.Context) ([]models.Enrollment, error) {
	return s.rows, nil
}

type stubPaymentSource struct{ rows []models.Payment }

func (s *stubPaymentSource) ListActive(ctx context.Context) ([]models.Payment, error) {
	return s.rows, nil
}

type stubReviewSource struct{ rows []models.Review }

func (s *stubReviewSource) ListActive(ctx context.Context) ([]models.Review, error) {
	return s.rows, nil
}

func newExportService() *ExportService {
	return NewExportService(
		&stubEnrollmentSource{rows: []models.Enrollment{
			{ID: 1, StudentID: 10, ClassID: 20, Status: models.RecordStatusActive, CreatedAt: time.Now()},
		}},
		&stubPaymentSource{rows: []models.Payment{
			{ID: 5, Amount: 150.0, EnrollmentID: 1, Status: models.RecordStatusActive, CreatedAt: time.Now()},
		}},
		&stubReviewSource{rows: []models.Review{
			{ID: 3, Rating: 5, Content: "solid", EnrollmentID: 1, Status: models.RecordStatusActive, CreatedAt: time.Now()},
		}},
		zap.NewNop(), nil, nil,
	)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := newExportService()

	result, err := svc.Generate(context.Background(), ExportEntityPayments, ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	require.Contains(t, body, "Payment ID")
	require.Contains(t, body, "150.00")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := newExportService()

	result, err := svc.Generate(context.Background(), ExportEntityReviews, ExportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportServiceUnknownEntity(t *testing.T) {
	svc := newExportService()

	_, err := svc.Generate(context.Background(), ExportEntity("students"), ExportFormatCSV)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
}
