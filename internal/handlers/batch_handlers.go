package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/epeers/fundsheet/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BatchHandler handles metric computation and read-back endpoints.
type BatchHandler struct {
	batchSvc *services.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchSvc *services.BatchService) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc}
}

func logProgress(p services.Progress) {
	log.Debugf("progress %d/%d: %s (%s)", p.Processed, p.Total, p.Entity, p.Status)
}

// Compute handles POST /portfolios/:id/compute
// @Summary Compute metrics for one portfolio
// @Success 200 {object} models.BatchResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/{id}/compute [post]
func (h *BatchHandler) Compute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid portfolio ID",
		})
		return
	}

	result, err := h.batchSvc.ComputePortfolio(c.Request.Context(), id, logProgress)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "portfolio not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.BatchResponse{
		PortfolioID: result.PortfolioID,
		RunID:       result.RunID,
		Succeeded:   result.Succeeded,
		Partial:     result.Partial,
		Failed:      result.Failed,
	})
}

// ComputeAll handles POST /compute-all
// @Summary Recompute metrics for every portfolio
// @Success 200 {array} models.BatchResponse
// @Router /compute-all [post]
func (h *BatchHandler) ComputeAll(c *gin.Context) {
	results, err := h.batchSvc.ComputeAll(c.Request.Context(), logProgress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	out := make([]models.BatchResponse, 0, len(results))
	for _, r := range results {
		out = append(out, models.BatchResponse{
			PortfolioID: r.PortfolioID,
			RunID:       r.RunID,
			Succeeded:   r.Succeeded,
			Partial:     r.Partial,
			Failed:      r.Failed,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetMetrics handles GET /portfolios/:id/metrics
// @Summary Get persisted per-entity metrics for a portfolio
// @Success 200 {array} models.MetricRecord
// @Router /portfolios/{id}/metrics [get]
func (h *BatchHandler) GetMetrics(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid portfolio ID",
		})
		return
	}

	records, err := h.batchSvc.GetMetrics(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetAggregate handles GET /portfolios/:id/aggregate
// @Summary Get the latest weighted aggregate for a portfolio
// @Success 200 {object} models.PortfolioAggregate
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/{id}/aggregate [get]
func (h *BatchHandler) GetAggregate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid portfolio ID",
		})
		return
	}

	agg, err := h.batchSvc.GetAggregate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "no aggregate computed for this portfolio",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, agg)
}
