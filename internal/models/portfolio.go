package models

import "time"

// Portfolio groups holdings for weighted aggregation.
type Portfolio struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// Holding links an entity to a portfolio with its market value. The holding
// weight is derived at calculation time (market value over the portfolio's
// market-value total), never stored, so market-value corrections need no
// separate weight-recomputation pass.
type Holding struct {
	PortfolioID int64   `json:"portfolio_id"`
	EntityID    int64   `json:"entity_id"`
	MarketValue float64 `json:"market_value"`
}

// CreatePortfolioRequest is the portfolio-creation payload.
type CreatePortfolioRequest struct {
	Name string `json:"name" binding:"required"`
}

// HoldingRequest sets one holding's market value.
type HoldingRequest struct {
	EntityID    int64   `json:"entity_id" binding:"required"`
	MarketValue float64 `json:"market_value"`
}
