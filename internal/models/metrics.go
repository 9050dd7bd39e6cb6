package models

import (
	"time"

	"github.com/epeers/fundsheet/internal/schema"
)

// MetricSet is the full per-entity-per-period metric output. Every field
// defaults to 0.0 when its inputs are missing or a denominator is zero.
//
// AlphaOverBond and AbsoluteAlpha are extension points pending a
// benchmark-return-series feed; they are always 0.0 today.
type MetricSet struct {
	PATM                  float64 `json:"patm"`
	QoQGrowth             float64 `json:"qoq_growth"`
	YoYGrowth             float64 `json:"yoy_growth"`
	RevenueCAGR6Y         float64 `json:"revenue_cagr_6y"`
	ProfitCAGR6Y          float64 `json:"profit_cagr_6y"`
	TrailingRevenueGrowth float64 `json:"trailing_revenue_growth"`
	TrailingProfitGrowth  float64 `json:"trailing_profit_growth"`
	Growth                float64 `json:"growth"`
	CurrentPE             float64 `json:"current_pe"`
	CurrentPR             float64 `json:"current_pr"`
	AvgPE2Y               float64 `json:"avg_pe_2y"`
	AvgPE5Y               float64 `json:"avg_pe_5y"`
	AvgPR2Y               float64 `json:"avg_pr_2y"`
	AvgPR5Y               float64 `json:"avg_pr_5y"`
	RevalPE2Y             float64 `json:"reval_pe_2y"`
	RevalPE5Y             float64 `json:"reval_pe_5y"`
	RevalPR2Y             float64 `json:"reval_pr_2y"`
	RevalPR5Y             float64 `json:"reval_pr_5y"`
	PRLow10Q              float64 `json:"pr_low_10q"`
	PRHigh10Q             float64 `json:"pr_high_10q"`
	Yield                 float64 `json:"yield"`
	AlphaOverBond         float64 `json:"alpha_over_bond"`
	AbsoluteAlpha         float64 `json:"absolute_alpha"`
}

// Fundamentals carries the raw figures a metric set was computed from. The
// portfolio aggregator needs these to build ratio-of-totals metrics.
type Fundamentals struct {
	Valuation       float64 `json:"valuation"`
	TrailingRevenue float64 `json:"trailing_revenue"`
	TrailingProfit  float64 `json:"trailing_profit"`
}

// ComputeStatus classifies one entity's computation outcome.
type ComputeStatus int

const (
	// StatusOK means every metric was computed from sufficient data.
	StatusOK ComputeStatus = iota
	// StatusPartial means at least one metric fell back to its 0.0 default.
	StatusPartial
	// StatusNoData means the bundle had no records at all.
	StatusNoData
	// StatusFailed means computation was aborted for this entity; all
	// metrics are 0.0 and the batch proceeds.
	StatusFailed
)

func (s ComputeStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusNoData:
		return "no_data"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// ComputeResult is one entity's computed metrics plus its status.
type ComputeResult struct {
	EntityID     int64         `json:"entity_id"`
	Metrics      MetricSet     `json:"metrics"`
	Fundamentals Fundamentals  `json:"fundamentals"`
	Status       ComputeStatus `json:"status"`
}

// MetricRecord is the persisted form, keyed by portfolio, entity and period.
type MetricRecord struct {
	PortfolioID int64            `json:"portfolio_id"`
	EntityID    int64            `json:"entity_id"`
	Period      schema.PeriodKey `json:"period"`
	Metrics     MetricSet        `json:"metrics"`
}

// PortfolioAggregate is the latest weighted aggregate for one portfolio,
// replaced wholesale on every aggregation run.
type PortfolioAggregate struct {
	PortfolioID int64     `json:"portfolio_id"`
	Metrics     MetricSet `json:"metrics"`
	UpdatedAt   time.Time `json:"updated_at"`
}
