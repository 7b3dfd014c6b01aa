package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/response"
)

// ExportHandler streams rendered CSV/PDF exports of the ledger tables.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download godoc
// @Summary Export a ledger table
// @Description Renders the active rows of an entity as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param entity path string true "Entity" Enums(enrollments, payments, reviews)
// @Param format query string false "Format" Enums(csv, pdf) default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/{entity} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	entity := service.ExportEntity(c.Param("entity"))
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.Generate(c.Request.Context(), entity, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Payload)
}
