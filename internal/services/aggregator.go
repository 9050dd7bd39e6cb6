package services

import (
	"time"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/shopspring/decimal"
)

// WeightedHolding is one portfolio position fed into aggregation: the
// entity's metrics, the raw fundamentals those metrics came from, and the
// holding's market value. The weight is derived here on every call, never
// read from storage, so market-value corrections take effect immediately.
type WeightedHolding struct {
	EntityID     int64
	Name         string
	MarketValue  float64
	Metrics      models.MetricSet
	Fundamentals models.Fundamentals
}

// AggregateHoldings combines per-entity metrics into the portfolio-level
// set. Two rules apply:
//
// Averaging metrics (growth rates, CAGR, window averages, yield, the alpha
// placeholders) take the linear weighted mean Σ(metric × weight).
//
// PATM, current PE and current PR are instead recomputed from weighted
// financial totals — Σ(valuation × weight) over Σ(profit × weight) and so
// on — reproducing the ratio-of-the-TOTALS-row convention of the source
// sheets. This is deliberately not a weighted average of the entity ratios;
// the two differ materially when entity sizes vary.
//
// Zero or missing market values contribute nothing; all-zero market values
// yield the all-zero set without error.
func AggregateHoldings(holdings []WeightedHolding) models.PortfolioAggregate {
	agg := models.PortfolioAggregate{UpdatedAt: time.Now().UTC()}

	total := decimal.Zero
	for _, h := range holdings {
		if h.MarketValue > 0 {
			total = total.Add(decimal.NewFromFloat(h.MarketValue))
		}
	}
	if total.IsZero() {
		return agg
	}

	m := &agg.Metrics
	weightedValuation := decimal.Zero
	weightedRevenue := decimal.Zero
	weightedProfit := decimal.Zero

	for _, h := range holdings {
		if h.MarketValue <= 0 {
			continue
		}
		weightDec := decimal.NewFromFloat(h.MarketValue).Div(total)
		weight := weightDec.InexactFloat64()

		weightedValuation = weightedValuation.Add(decimal.NewFromFloat(h.Fundamentals.Valuation).Mul(weightDec))
		weightedRevenue = weightedRevenue.Add(decimal.NewFromFloat(h.Fundamentals.TrailingRevenue).Mul(weightDec))
		weightedProfit = weightedProfit.Add(decimal.NewFromFloat(h.Fundamentals.TrailingProfit).Mul(weightDec))

		m.QoQGrowth += h.Metrics.QoQGrowth * weight
		m.YoYGrowth += h.Metrics.YoYGrowth * weight
		m.RevenueCAGR6Y += h.Metrics.RevenueCAGR6Y * weight
		m.ProfitCAGR6Y += h.Metrics.ProfitCAGR6Y * weight
		m.TrailingRevenueGrowth += h.Metrics.TrailingRevenueGrowth * weight
		m.TrailingProfitGrowth += h.Metrics.TrailingProfitGrowth * weight
		m.Growth += h.Metrics.Growth * weight
		m.AvgPE2Y += h.Metrics.AvgPE2Y * weight
		m.AvgPE5Y += h.Metrics.AvgPE5Y * weight
		m.AvgPR2Y += h.Metrics.AvgPR2Y * weight
		m.AvgPR5Y += h.Metrics.AvgPR5Y * weight
		m.RevalPE2Y += h.Metrics.RevalPE2Y * weight
		m.RevalPE5Y += h.Metrics.RevalPE5Y * weight
		m.RevalPR2Y += h.Metrics.RevalPR2Y * weight
		m.RevalPR5Y += h.Metrics.RevalPR5Y * weight
		m.PRLow10Q += h.Metrics.PRLow10Q * weight
		m.PRHigh10Q += h.Metrics.PRHigh10Q * weight
		m.Yield += h.Metrics.Yield * weight
		m.AlphaOverBond += h.Metrics.AlphaOverBond * weight
		m.AbsoluteAlpha += h.Metrics.AbsoluteAlpha * weight
	}

	// Ratio-of-totals metrics.
	if !weightedRevenue.IsZero() {
		m.PATM = weightedProfit.Div(weightedRevenue).InexactFloat64() * 100
		m.CurrentPR = weightedValuation.Div(weightedRevenue).InexactFloat64()
	}
	if !weightedProfit.IsZero() {
		m.CurrentPE = weightedValuation.Div(weightedProfit).InexactFloat64()
	}

	return agg
}
