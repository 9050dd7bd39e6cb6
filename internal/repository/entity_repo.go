package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEntityNotFound = errors.New("entity not found")

// EntityRepository handles database operations for entities.
type EntityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

// Upsert creates or updates an entity keyed by its code and fills in the ID.
func (r *EntityRepository) Upsert(ctx context.Context, e *models.Entity) error {
	query := `
		INSERT INTO dim_entity (code, name, isin, bse_code, nse_code, created, updated)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    isin = CASE WHEN EXCLUDED.isin <> '' THEN EXCLUDED.isin ELSE dim_entity.isin END,
		    bse_code = CASE WHEN EXCLUDED.bse_code <> '' THEN EXCLUDED.bse_code ELSE dim_entity.bse_code END,
		    nse_code = CASE WHEN EXCLUDED.nse_code <> '' THEN EXCLUDED.nse_code ELSE dim_entity.nse_code END,
		    updated = NOW()
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, e.Code, e.Name, e.ISIN, e.BSECode, e.NSECode).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert entity %q: %w", e.Code, err)
	}
	return nil
}

// GetByID retrieves one entity.
func (r *EntityRepository) GetByID(ctx context.Context, id int64) (*models.Entity, error) {
	query := `SELECT id, code, name, isin, bse_code, nse_code FROM dim_entity WHERE id = $1`
	e := &models.Entity{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Code, &e.Name, &e.ISIN, &e.BSECode, &e.NSECode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

// GetByIDs bulk-loads entities, keyed by ID. Missing IDs are simply absent.
func (r *EntityRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Entity, error) {
	query := `SELECT id, code, name, isin, bse_code, nse_code FROM dim_entity WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]models.Entity, len(ids))
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.ISIN, &e.BSECode, &e.NSECode); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

// ListAll returns every entity ordered by name, for the columnar export.
func (r *EntityRepository) ListAll(ctx context.Context) ([]models.Entity, error) {
	query := `SELECT id, code, name, isin, bse_code, nse_code FROM dim_entity ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var out []models.Entity
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.ISIN, &e.BSECode, &e.NSECode); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
