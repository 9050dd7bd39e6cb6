package handlers

import (
	"net/http"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
	"github.com/epeers/fundsheet/internal/services"
	"github.com/gin-gonic/gin"
)

// IngestHandler handles sheet-upload endpoints.
type IngestHandler struct {
	ingestSvc *services.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestSvc *services.IngestService) *IngestHandler {
	return &IngestHandler{ingestSvc: ingestSvc}
}

// Upload handles POST /ingest
// @Summary Ingest a financial data sheet
// @Description Uploads a CSV table, classifies its columns and stores the time-series records
// @Accept multipart/form-data
// @Param file formData file true "CSV sheet"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /ingest [post]
func (h *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "missing uploaded file",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.ingestSvc.IngestCSV(c.Request.Context(), file)
	if err != nil {
		if schema.ErrIsSchema(err) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "schema_error",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
