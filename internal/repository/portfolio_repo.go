package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPortfolioNotFound = errors.New("portfolio not found")

// PortfolioRepository handles database operations for portfolios and their
// holdings.
type PortfolioRepository struct {
	pool *pgxpool.Pool
}

// NewPortfolioRepository creates a new PortfolioRepository.
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

// Create creates a new portfolio.
func (r *PortfolioRepository) Create(ctx context.Context, p *models.Portfolio) error {
	query := `
		INSERT INTO portfolio (name, created, updated)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created, updated
	`
	return r.pool.QueryRow(ctx, query, p.Name).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID retrieves a portfolio by ID.
func (r *PortfolioRepository) GetByID(ctx context.Context, id int64) (*models.Portfolio, error) {
	query := `SELECT id, name, created, updated FROM portfolio WHERE id = $1`
	p := &models.Portfolio{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

// ListAll returns every portfolio, oldest first, for full recompute runs.
func (r *PortfolioRepository) ListAll(ctx context.Context) ([]models.Portfolio, error) {
	query := `SELECT id, name, created, updated FROM portfolio ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var out []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetHoldings retrieves all holdings for a portfolio.
func (r *PortfolioRepository) GetHoldings(ctx context.Context, portfolioID int64) ([]models.Holding, error) {
	query := `
		SELECT portfolio_id, entity_id, market_value
		FROM portfolio_holding
		WHERE portfolio_id = $1
		ORDER BY entity_id
	`
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var out []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.PortfolioID, &h.EntityID, &h.MarketValue); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpsertHolding sets one holding's market value.
func (r *PortfolioRepository) UpsertHolding(ctx context.Context, h models.Holding) error {
	query := `
		INSERT INTO portfolio_holding (portfolio_id, entity_id, market_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (portfolio_id, entity_id) DO UPDATE
		SET market_value = EXCLUDED.market_value
	`
	_, err := r.pool.Exec(ctx, query, h.PortfolioID, h.EntityID, h.MarketValue)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}
