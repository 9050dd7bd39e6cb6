package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/gin-gonic/gin"
)

// PortfolioHandler handles portfolio and holding endpoints.
type PortfolioHandler struct {
	portfolioRepo *repository.PortfolioRepository
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioRepo *repository.PortfolioRepository) *PortfolioHandler {
	return &PortfolioHandler{portfolioRepo: portfolioRepo}
}

// Create handles POST /portfolios
// @Summary Create a portfolio
// @Success 201 {object} models.Portfolio
// @Router /portfolios [post]
func (h *PortfolioHandler) Create(c *gin.Context) {
	var req models.CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	p := &models.Portfolio{Name: req.Name}
	if err := h.portfolioRepo.Create(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get handles GET /portfolios/:id
// @Summary Get a portfolio
// @Success 200 {object} models.Portfolio
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/{id} [get]
func (h *PortfolioHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid portfolio ID",
		})
		return
	}

	p, err := h.portfolioRepo.GetByID(c.Request.Context(), id)
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
	c.JSON(http.StatusOK, p)
}

// List handles GET /portfolios
// @Summary List portfolios
// @Success 200 {array} models.Portfolio
// @Router /portfolios [get]
func (h *PortfolioHandler) List(c *gin.Context) {
	portfolios, err := h.portfolioRepo.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, portfolios)
}

// SetHolding handles PUT /portfolios/:id/holdings
// @Summary Set one holding's market value
// @Success 200 {object} models.Holding
// @Router /portfolios/{id}/holdings [put]
func (h *PortfolioHandler) SetHolding(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid portfolio ID",
		})
		return
	}

	var req models.HoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	holding := models.Holding{PortfolioID: id, EntityID: req.EntityID, MarketValue: req.MarketValue}
	if err := h.portfolioRepo.UpsertHolding(c.Request.Context(), holding); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, holding)
}
