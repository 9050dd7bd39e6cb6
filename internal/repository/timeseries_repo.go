package repository

import (
	"context"
	"fmt"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimeSeriesRepository stores the five time-series record kinds, one fact
// table per kind. The period-label variant is implied by the table, so only
// the encoded period value is stored.
type TimeSeriesRepository struct {
	pool *pgxpool.Pool
}

// NewTimeSeriesRepository creates a new TimeSeriesRepository.
func NewTimeSeriesRepository(pool *pgxpool.Pool) *TimeSeriesRepository {
	return &TimeSeriesRepository{pool: pool}
}

func tableFor(kind models.RecordKind) (table string, periodKind schema.PeriodKind) {
	switch kind {
	case models.KindValuation:
		return "fact_valuation", schema.PeriodDate
	case models.KindTrailing:
		return "fact_trailing", schema.PeriodYearMonth
	case models.KindQuarterly:
		return "fact_quarterly", schema.PeriodYearMonth
	case models.KindAnnualRatio:
		return "fact_annual_ratio", schema.PeriodFiscalYear
	case models.KindPrice:
		return "fact_price", schema.PeriodDate
	}
	return "", 0
}

// UpsertValuation overwrites the record at (entity, period).
func (r *TimeSeriesRepository) UpsertValuation(ctx context.Context, rec models.ValuationRecord) error {
	query := `
		INSERT INTO fact_valuation (entity_id, period_value, market_cap, market_cap_ff)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id, period_value) DO UPDATE
		SET market_cap = EXCLUDED.market_cap, market_cap_ff = EXCLUDED.market_cap_ff
	`
	_, err := r.pool.Exec(ctx, query, rec.EntityID, rec.Period.Value, rec.MarketCap, rec.MarketCapFF)
	if err != nil {
		return fmt.Errorf("failed to upsert valuation record: %w", err)
	}
	return nil
}

// UpsertTrailing overwrites the record at (entity, period).
func (r *TimeSeriesRepository) UpsertTrailing(ctx context.Context, rec models.TrailingRecord) error {
	query := `
		INSERT INTO fact_trailing (entity_id, period_value, revenue, revenue_ff, profit, profit_ff)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, period_value) DO UPDATE
		SET revenue = EXCLUDED.revenue, revenue_ff = EXCLUDED.revenue_ff,
		    profit = EXCLUDED.profit, profit_ff = EXCLUDED.profit_ff
	`
	_, err := r.pool.Exec(ctx, query, rec.EntityID, rec.Period.Value, rec.Revenue, rec.RevenueFF, rec.Profit, rec.ProfitFF)
	if err != nil {
		return fmt.Errorf("failed to upsert trailing record: %w", err)
	}
	return nil
}

// UpsertQuarterly overwrites the record at (entity, period).
func (r *TimeSeriesRepository) UpsertQuarterly(ctx context.Context, rec models.QuarterlyRecord) error {
	query := `
		INSERT INTO fact_quarterly (entity_id, period_value, revenue, revenue_ff, profit, profit_ff)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, period_value) DO UPDATE
		SET revenue = EXCLUDED.revenue, revenue_ff = EXCLUDED.revenue_ff,
		    profit = EXCLUDED.profit, profit_ff = EXCLUDED.profit_ff
	`
	_, err := r.pool.Exec(ctx, query, rec.EntityID, rec.Period.Value, rec.Revenue, rec.RevenueFF, rec.Profit, rec.ProfitFF)
	if err != nil {
		return fmt.Errorf("failed to upsert quarterly record: %w", err)
	}
	return nil
}

// UpsertAnnualRatio overwrites the record at (entity, period).
func (r *TimeSeriesRepository) UpsertAnnualRatio(ctx context.Context, rec models.AnnualRatioRecord) error {
	query := `
		INSERT INTO fact_annual_ratio (entity_id, period_value, return_on_capital, return_on_equity, retention)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id, period_value) DO UPDATE
		SET return_on_capital = EXCLUDED.return_on_capital,
		    return_on_equity = EXCLUDED.return_on_equity,
		    retention = EXCLUDED.retention
	`
	_, err := r.pool.Exec(ctx, query, rec.EntityID, rec.Period.Value, rec.ReturnOnCapital, rec.ReturnOnEquity, rec.Retention)
	if err != nil {
		return fmt.Errorf("failed to upsert annual ratio record: %w", err)
	}
	return nil
}

// UpsertPrice overwrites the record at (entity, period).
func (r *TimeSeriesRepository) UpsertPrice(ctx context.Context, rec models.PriceRecord) error {
	query := `
		INSERT INTO fact_price (entity_id, period_value, price, price_to_revenue, price_to_earnings)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id, period_value) DO UPDATE
		SET price = EXCLUDED.price, price_to_revenue = EXCLUDED.price_to_revenue,
		    price_to_earnings = EXCLUDED.price_to_earnings
	`
	_, err := r.pool.Exec(ctx, query, rec.EntityID, rec.Period.Value, rec.Price, rec.PriceToRevenue, rec.PriceToEarnings)
	if err != nil {
		return fmt.Errorf("failed to upsert price record: %w", err)
	}
	return nil
}

// GetValuations bulk-loads valuation records for a set of entities, most
// recent first per entity.
func (r *TimeSeriesRepository) GetValuations(ctx context.Context, entityIDs []int64) ([]models.ValuationRecord, error) {
	query := `
		SELECT entity_id, period_value, market_cap, market_cap_ff
		FROM fact_valuation
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, period_value DESC
	`
	rows, err := r.pool.Query(ctx, query, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuations: %w", err)
	}
	defer rows.Close()

	var out []models.ValuationRecord
	for rows.Next() {
		var rec models.ValuationRecord
		rec.Period.Kind = schema.PeriodDate
		if err := rows.Scan(&rec.EntityID, &rec.Period.Value, &rec.MarketCap, &rec.MarketCapFF); err != nil {
			return nil, fmt.Errorf("failed to scan valuation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetTrailing bulk-loads trailing records, most recent first per entity.
func (r *TimeSeriesRepository) GetTrailing(ctx context.Context, entityIDs []int64) ([]models.TrailingRecord, error) {
	query := `
		SELECT entity_id, period_value, revenue, revenue_ff, profit, profit_ff
		FROM fact_trailing
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, period_value DESC
	`
	rows, err := r.pool.Query(ctx, query, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query trailing records: %w", err)
	}
	defer rows.Close()

	var out []models.TrailingRecord
	for rows.Next() {
		var rec models.TrailingRecord
		rec.Period.Kind = schema.PeriodYearMonth
		if err := rows.Scan(&rec.EntityID, &rec.Period.Value, &rec.Revenue, &rec.RevenueFF, &rec.Profit, &rec.ProfitFF); err != nil {
			return nil, fmt.Errorf("failed to scan trailing record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetQuarterly bulk-loads quarterly records, most recent first per entity.
func (r *TimeSeriesRepository) GetQuarterly(ctx context.Context, entityIDs []int64) ([]models.QuarterlyRecord, error) {
	query := `
		SELECT entity_id, period_value, revenue, revenue_ff, profit, profit_ff
		FROM fact_quarterly
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, period_value DESC
	`
	rows, err := r.pool.Query(ctx, query, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarterly records: %w", err)
	}
	defer rows.Close()

	var out []models.QuarterlyRecord
	for rows.Next() {
		var rec models.QuarterlyRecord
		rec.Period.Kind = schema.PeriodYearMonth
		if err := rows.Scan(&rec.EntityID, &rec.Period.Value, &rec.Revenue, &rec.RevenueFF, &rec.Profit, &rec.ProfitFF); err != nil {
			return nil, fmt.Errorf("failed to scan quarterly record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetAnnualRatios bulk-loads annual ratio records, most recent first per entity.
func (r *TimeSeriesRepository) GetAnnualRatios(ctx context.Context, entityIDs []int64) ([]models.AnnualRatioRecord, error) {
	query := `
		SELECT entity_id, period_value, return_on_capital, return_on_equity, retention
		FROM fact_annual_ratio
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, period_value DESC
	`
	rows, err := r.pool.Query(ctx, query, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query annual ratios: %w", err)
	}
	defer rows.Close()

	var out []models.AnnualRatioRecord
	for rows.Next() {
		var rec models.AnnualRatioRecord
		rec.Period.Kind = schema.PeriodFiscalYear
		if err := rows.Scan(&rec.EntityID, &rec.Period.Value, &rec.ReturnOnCapital, &rec.ReturnOnEquity, &rec.Retention); err != nil {
			return nil, fmt.Errorf("failed to scan annual ratio: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetPrices bulk-loads price records, most recent first per entity.
func (r *TimeSeriesRepository) GetPrices(ctx context.Context, entityIDs []int64) ([]models.PriceRecord, error) {
	query := `
		SELECT entity_id, period_value, price, price_to_revenue, price_to_earnings
		FROM fact_price
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, period_value DESC
	`
	rows, err := r.pool.Query(ctx, query, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var out []models.PriceRecord
	for rows.Next() {
		var rec models.PriceRecord
		rec.Period.Kind = schema.PeriodDate
		if err := rows.Scan(&rec.EntityID, &rec.Period.Value, &rec.Price, &rec.PriceToRevenue, &rec.PriceToEarnings); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DistinctPeriods returns every distinct period stored for a kind, feeding
// the period registry on export.
func (r *TimeSeriesRepository) DistinctPeriods(ctx context.Context, kind models.RecordKind) ([]schema.PeriodKey, error) {
	table, periodKind := tableFor(kind)
	if table == "" {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	query := fmt.Sprintf(`SELECT DISTINCT period_value FROM %s ORDER BY period_value DESC`, table)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct periods for %s: %w", kind, err)
	}
	defer rows.Close()

	var out []schema.PeriodKey
	for rows.Next() {
		key := schema.PeriodKey{Kind: periodKind}
		if err := rows.Scan(&key.Value); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		out = append(out, key)
	}
	return out, rows.Err()
}
