package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportEntity selects which ledger table to export.
type ExportEntity string

const (
	ExportEntityEnrollments ExportEntity = "enrollments"
	ExportEntityPayments    ExportEntity = "payments"
	ExportEntityReviews     ExportEntity = "reviews"
)

type exportEnrollmentSource interface {
	ListActive(ctx context.Context) ([]models.Enrollment, error)
}

type exportPaymentSource interface {
	ListActive(ctx context.Context) ([]models.Payment, error)
}

type exportReviewSource interface {
	ListActive(ctx context.Context) ([]models.Review, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders active ledger rows into downloadable CSV or PDF files.
type ExportService struct {
	enrollments exportEnrollmentSource
	payments    exportPaymentSource
	reviews     exportReviewSource
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments exportEnrollmentSource, payments exportPaymentSource, reviews exportReviewSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		enrollments: enrollments,
		payments:    payments,
		reviews:     reviews,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// Generate builds the dataset for the requested entity and renders it.
func (s *ExportService) Generate(ctx context.Context, entity ExportEntity, format ExportFormat) (*ExportResult, error) {
	dataset, title, err := s.buildDataset(ctx, entity)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", entity, timestamp, format)

	return &ExportResult{
		Filename:    filename,
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, entity ExportEntity) (export.Dataset, string, error) {
	switch entity {
	case ExportEntityEnrollments:
		return s.buildEnrollmentDataset(ctx)
	case ExportEntityPayments:
		return s.buildPaymentDataset(ctx)
	case ExportEntityReviews:
		return s.buildReviewDataset(ctx)
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export entity %q", entity))
	}
}

func (s *ExportService) buildEnrollmentDataset(ctx context.Context) (export.Dataset, string, error) {
	rows, err := s.enrollments.ListActive(ctx)
	if err != nil {
		return export.Dataset{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Enrollment ID": strconv.FormatInt(row.ID, 10),
			"Student ID":    strconv.FormatInt(row.StudentID, 10),
			"Class ID":      strconv.FormatInt(row.ClassID, 10),
			"Status":        row.Status.String(),
			"Created At":    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Enrollment ID", "Student ID", "Class ID", "Status", "Created At"},
		Rows:    dataRows,
	}
	return dataset, "Enrollment Report", nil
}

func (s *ExportService) buildPaymentDataset(ctx context.Context) (export.Dataset, string, error) {
	rows, err := s.payments.ListActive(ctx)
	if err != nil {
		return export.Dataset{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Payment ID":    strconv.FormatInt(row.ID, 10),
			"Enrollment ID": strconv.FormatInt(row.EnrollmentID, 10),
			"Amount":        fmt.Sprintf("%.2f", row.Amount),
			"Status":        row.Status.String(),
			"Created At":    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Payment ID", "Enrollment ID", "Amount", "Status", "Created At"},
		Rows:    dataRows,
	}
	return dataset, "Payment Report", nil
}

func (s *ExportService) buildReviewDataset(ctx context.Context) (export.Dataset, string, error) {
	rows, err := s.reviews.ListActive(ctx)
	if err != nil {
		return export.Dataset{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviews")
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Review ID":     strconv.FormatInt(row.ID, 10),
			"Enrollment ID": strconv.FormatInt(row.EnrollmentID, 10),
			"Rating":        strconv.Itoa(int(row.Rating)),
			"Content":       row.Content,
			"Status":        row.Status.String(),
			"Created At":    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Review ID", "Enrollment ID", "Rating", "Content", "Status", "Created At"},
		Rows:    dataRows,
	}
	return dataset, "Review Report", nil
}
