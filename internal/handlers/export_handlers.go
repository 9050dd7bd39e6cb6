package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/services"
	"github.com/gin-gonic/gin"
)

type csvExporter interface {
	ExportCSV(ctx context.Context, w io.Writer) error
}

// ExportHandler handles the columnar re-export endpoint.
type ExportHandler struct {
	exportSvc csvExporter
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportSvc *services.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Export handles GET /export
// @Summary Export stored data as a columnar CSV
// @Description Re-projects all stored time series into the canonical block layout
// @Produce text/csv
// @Success 200
// @Failure 500 {object} models.ErrorResponse
// @Router /export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	// Render into a buffer first: a mid-export failure must produce a clean
	// JSON error, never a truncated CSV attachment.
	var buf bytes.Buffer
	if err := h.exportSvc.ExportCSV(c.Request.Context(), &buf); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="fundsheet-export.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
