package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// ErrPersistenceConflict is surfaced after the read-then-split upsert cycle
// has conflicted twice in a row for the same portfolio.
var ErrPersistenceConflict = errors.New("metrics upsert conflicted after retry")

const uniqueViolationCode = "23505"

var metricColumns = []string{
	"patm", "qoq_growth", "yoy_growth", "revenue_cagr_6y", "profit_cagr_6y",
	"trailing_revenue_growth", "trailing_profit_growth", "growth",
	"current_pe", "current_pr", "avg_pe_2y", "avg_pe_5y", "avg_pr_2y", "avg_pr_5y",
	"reval_pe_2y", "reval_pe_5y", "reval_pr_2y", "reval_pr_5y",
	"pr_low_10q", "pr_high_10q", "yield", "alpha_over_bond", "absolute_alpha",
}

func metricValues(m models.MetricSet) []any {
	return []any{
		m.PATM, m.QoQGrowth, m.YoYGrowth, m.RevenueCAGR6Y, m.ProfitCAGR6Y,
		m.TrailingRevenueGrowth, m.TrailingProfitGrowth, m.Growth,
		m.CurrentPE, m.CurrentPR, m.AvgPE2Y, m.AvgPE5Y, m.AvgPR2Y, m.AvgPR5Y,
		m.RevalPE2Y, m.RevalPE5Y, m.RevalPR2Y, m.RevalPR5Y,
		m.PRLow10Q, m.PRHigh10Q, m.Yield, m.AlphaOverBond, m.AbsoluteAlpha,
	}
}

func scanMetricSet(dest *models.MetricSet) []any {
	return []any{
		&dest.PATM, &dest.QoQGrowth, &dest.YoYGrowth, &dest.RevenueCAGR6Y, &dest.ProfitCAGR6Y,
		&dest.TrailingRevenueGrowth, &dest.TrailingProfitGrowth, &dest.Growth,
		&dest.CurrentPE, &dest.CurrentPR, &dest.AvgPE2Y, &dest.AvgPE5Y, &dest.AvgPR2Y, &dest.AvgPR5Y,
		&dest.RevalPE2Y, &dest.RevalPE5Y, &dest.RevalPR2Y, &dest.RevalPR5Y,
		&dest.PRLow10Q, &dest.PRHigh10Q, &dest.Yield, &dest.AlphaOverBond, &dest.AbsoluteAlpha,
	}
}

// MetricsRepository persists computed metric records and portfolio
// aggregates.
type MetricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository creates a new MetricsRepository.
func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

// metricKey identifies one persisted metric record within a portfolio.
type metricKey struct {
	entityID    int64
	periodKind  int
	periodValue int
}

func keyOf(rec models.MetricRecord) metricKey {
	return metricKey{
		entityID:    rec.EntityID,
		periodKind:  int(rec.Period.Kind),
		periodValue: rec.Period.Value,
	}
}

// splitUpserts partitions records into updates (key already persisted) and
// inserts. A record appearing twice in the input keeps its last value only.
func splitUpserts(existing map[metricKey]bool, recs []models.MetricRecord) (updates, inserts []models.MetricRecord) {
	latest := make(map[metricKey]int, len(recs))
	for i, rec := range recs {
		latest[keyOf(rec)] = i
	}
	for i, rec := range recs {
		if latest[keyOf(rec)] != i {
			continue
		}
		if existing[keyOf(rec)] {
			updates = append(updates, rec)
		} else {
			inserts = append(inserts, rec)
		}
	}
	return updates, inserts
}

// BulkUpsert persists metric records for one portfolio: read the existing
// keys, split into update and insert batches, write both in a single pgx
// batch. The cycle retries once on a unique violation (a concurrent run for
// the same portfolio inserted between the read and the write) before
// surfacing ErrPersistenceConflict.
func (r *MetricsRepository) BulkUpsert(ctx context.Context, portfolioID int64, recs []models.MetricRecord) error {
	if len(recs) == 0 {
		return nil
	}

	err := r.upsertCycle(ctx, portfolioID, recs)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}

	log.Warnf("metrics upsert for portfolio %d conflicted, retrying once: %v", portfolioID, err)
	if err := r.upsertCycle(ctx, portfolioID, recs); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceConflict, err)
	}
	return nil
}

func (r *MetricsRepository) upsertCycle(ctx context.Context, portfolioID int64, recs []models.MetricRecord) error {
	existing, err := r.existingKeys(ctx, portfolioID)
	if err != nil {
		return err
	}
	updates, inserts := splitUpserts(existing, recs)

	insertQuery := fmt.Sprintf(`
		INSERT INTO fact_metrics (portfolio_id, entity_id, period_kind, period_value, %s, updated)
		VALUES ($1, $2, $3, $4, %s, NOW())
	`, columnList(), placeholderList(5))

	updateQuery := fmt.Sprintf(`
		UPDATE fact_metrics SET %s, updated = NOW()
		WHERE portfolio_id = $1 AND entity_id = $2 AND period_kind = $3 AND period_value = $4
	`, assignmentList(5))

	batch := &pgx.Batch{}
	for _, rec := range inserts {
		args := append([]any{portfolioID, rec.EntityID, int(rec.Period.Kind), rec.Period.Value}, metricValues(rec.Metrics)...)
		batch.Queue(insertQuery, args...)
	}
	for _, rec := range updates {
		args := append([]any{portfolioID, rec.EntityID, int(rec.Period.Kind), rec.Period.Value}, metricValues(rec.Metrics)...)
		batch.Queue(updateQuery, args...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to write metric record: %w", err)
		}
	}
	return nil
}

func (r *MetricsRepository) existingKeys(ctx context.Context, portfolioID int64) (map[metricKey]bool, error) {
	query := `SELECT entity_id, period_kind, period_value FROM fact_metrics WHERE portfolio_id = $1`
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing metric keys: %w", err)
	}
	defer rows.Close()

	existing := make(map[metricKey]bool)
	for rows.Next() {
		var k metricKey
		if err := rows.Scan(&k.entityID, &k.periodKind, &k.periodValue); err != nil {
			return nil, fmt.Errorf("failed to scan metric key: %w", err)
		}
		existing[k] = true
	}
	return existing, rows.Err()
}

// GetMetrics returns the persisted metric records for one portfolio.
func (r *MetricsRepository) GetMetrics(ctx context.Context, portfolioID int64) ([]models.MetricRecord, error) {
	query := fmt.Sprintf(`
		SELECT entity_id, period_kind, period_value, %s
		FROM fact_metrics
		WHERE portfolio_id = $1
		ORDER BY entity_id, period_value DESC
	`, columnList())
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []models.MetricRecord
	for rows.Next() {
		rec := models.MetricRecord{PortfolioID: portfolioID}
		var periodKind int
		dest := append([]any{&rec.EntityID, &periodKind, &rec.Period.Value}, scanMetricSet(&rec.Metrics)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan metric record: %w", err)
		}
		rec.Period.Kind = schema.PeriodKind(periodKind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveAggregate replaces the portfolio's aggregate wholesale.
func (r *MetricsRepository) SaveAggregate(ctx context.Context, agg models.PortfolioAggregate) error {
	query := fmt.Sprintf(`
		INSERT INTO portfolio_aggregate (portfolio_id, %s, updated)
		VALUES ($1, %s, $25)
		ON CONFLICT (portfolio_id) DO UPDATE
		SET %s, updated = EXCLUDED.updated
	`, columnList(), placeholderList(2), excludedList())

	args := append([]any{agg.PortfolioID}, metricValues(agg.Metrics)...)
	args = append(args, agg.UpdatedAt)
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save portfolio aggregate: %w", err)
	}
	return nil
}

// GetAggregate returns the latest aggregate for a portfolio.
func (r *MetricsRepository) GetAggregate(ctx context.Context, portfolioID int64) (*models.PortfolioAggregate, error) {
	query := fmt.Sprintf(`
		SELECT portfolio_id, %s, updated
		FROM portfolio_aggregate
		WHERE portfolio_id = $1
	`, columnList())

	agg := &models.PortfolioAggregate{}
	dest := append([]any{&agg.PortfolioID}, scanMetricSet(&agg.Metrics)...)
	dest = append(dest, &agg.UpdatedAt)
	err := r.pool.QueryRow(ctx, query, portfolioID).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio aggregate: %w", err)
	}
	return agg, nil
}

func columnList() string {
	out := ""
	for i, col := range metricColumns {
		if i > 0 {
			out += ", "
		}
		out += col
	}
	return out
}

func placeholderList(start int) string {
	out := ""
	for i := range metricColumns {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("$%d", start+i)
	}
	return out
}

func assignmentList(start int) string {
	out := ""
	for i, col := range metricColumns {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s = $%d", col, start+i)
	}
	return out
}

func excludedList() string {
	out := ""
	for i, col := range metricColumns {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return out
}
