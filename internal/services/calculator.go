package services

import (
	"math"

	"github.com/epeers/fundsheet/internal/cache"
	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
	log "github.com/sirupsen/logrus"
)

// Window lengths, in trailing/quarterly records counted back from the target
// period. Six years of quarterly cadence is 24 records; the 6-year base is
// the record at descending index 23, mirroring YoY's use of index 3.
const (
	yoyBackIndex   = 3
	cagrBackIndex  = 23
	cagrWindowSize = cagrBackIndex + 1
	avgWindow2Y    = 8
	avgWindow5Y    = 20
	prWindow10Q    = 10
	cagrYears      = 6.0
)

// calc accumulates per-metric defaults so the caller can distinguish a clean
// computation from one that fell back to 0.0 somewhere. Missing data is a
// status, never an exception.
type calc struct {
	defaulted bool
}

// div guards the zero denominator, returning the metric default.
func (c *calc) div(num, den float64) float64 {
	if den == 0 {
		c.defaulted = true
		return 0.0
	}
	return num / den
}

// missing records that a metric had insufficient data and returns its default.
func (c *calc) missing() float64 {
	c.defaulted = true
	return 0.0
}

// ComputeMetrics computes the full metric set for one entity at the target
// period, entirely against the in-memory bundle. It never fails: an empty
// bundle yields the all-zero set with StatusNoData, and any metric whose
// inputs are missing or degenerate defaults to 0.0.
func ComputeMetrics(entityID int64, period schema.PeriodKey, bundle *cache.TimeSeriesBundle) models.ComputeResult {
	result := models.ComputeResult{EntityID: entityID}

	if bundle == nil || bundle.Empty() {
		log.Warnf("entity %d: no time-series data, defaulting all metrics", entityID)
		result.Status = models.StatusNoData
		return result
	}

	c := &calc{}
	m := &result.Metrics

	trailing := bundle.TrailingFrom(period)
	quarterly := bundle.QuarterlyFrom(period)
	valuation, hasValuation := bundle.ValuationAt(period)

	// Profitability and current multiples from the latest records at or
	// before the target period.
	if len(trailing) > 0 {
		latest := trailing[0]
		m.PATM = c.div(latest.Profit, latest.Revenue) * 100
		result.Fundamentals.TrailingRevenue = latest.Revenue
		result.Fundamentals.TrailingProfit = latest.Profit
		if hasValuation {
			m.CurrentPE = c.div(valuation.MarketCap, latest.Profit)
			m.CurrentPR = c.div(valuation.MarketCap, latest.Revenue)
		} else {
			m.CurrentPE = c.missing()
			m.CurrentPR = c.missing()
		}
	} else {
		m.PATM = c.missing()
		m.CurrentPE = c.missing()
		m.CurrentPR = c.missing()
	}
	if hasValuation {
		result.Fundamentals.Valuation = valuation.MarketCap
	}
	m.Yield = c.div(1, m.CurrentPE) * 100

	// Quarter-over-quarter and year-over-year revenue growth.
	if len(quarterly) >= 2 {
		m.QoQGrowth = c.div(quarterly[0].Revenue-quarterly[1].Revenue, quarterly[1].Revenue)
	} else {
		m.QoQGrowth = c.missing()
	}
	if len(quarterly) > yoyBackIndex {
		m.YoYGrowth = c.div(quarterly[0].Revenue-quarterly[yoyBackIndex].Revenue, quarterly[yoyBackIndex].Revenue)
	} else {
		m.YoYGrowth = c.missing()
	}

	// Trailing growth between the two most recent trailing records, and
	// their mean as the composite growth figure.
	if len(trailing) >= 2 {
		m.TrailingRevenueGrowth = c.div(trailing[0].Revenue-trailing[1].Revenue, trailing[1].Revenue)
		m.TrailingProfitGrowth = c.div(trailing[0].Profit-trailing[1].Profit, trailing[1].Profit)
	} else {
		m.TrailingRevenueGrowth = c.missing()
		m.TrailingProfitGrowth = c.missing()
	}
	m.Growth = (m.TrailingRevenueGrowth + m.TrailingProfitGrowth) / 2

	// Six-year compound growth, revenue and profit independently.
	m.RevenueCAGR6Y = compoundGrowth(c, trailing, func(r models.TrailingRecord) float64 { return r.Revenue })
	m.ProfitCAGR6Y = compoundGrowth(c, trailing, func(r models.TrailingRecord) float64 { return r.Profit })

	// Multi-year average multiples over valuation-vs-trailing pairs.
	// Partial windows are disallowed: below threshold the average is 0.0,
	// never a small-sample mean.
	m.AvgPE2Y = windowAverage(c, bundle, trailing, avgWindow2Y, func(r models.TrailingRecord) float64 { return r.Profit })
	m.AvgPE5Y = windowAverage(c, bundle, trailing, avgWindow5Y, func(r models.TrailingRecord) float64 { return r.Profit })
	m.AvgPR2Y = windowAverage(c, bundle, trailing, avgWindow2Y, func(r models.TrailingRecord) float64 { return r.Revenue })
	m.AvgPR5Y = windowAverage(c, bundle, trailing, avgWindow5Y, func(r models.TrailingRecord) float64 { return r.Revenue })

	m.RevalPE2Y = revaluation(c, m.AvgPE2Y, m.CurrentPE)
	m.RevalPE5Y = revaluation(c, m.AvgPE5Y, m.CurrentPE)
	m.RevalPR2Y = revaluation(c, m.AvgPR2Y, m.CurrentPR)
	m.RevalPR5Y = revaluation(c, m.AvgPR5Y, m.CurrentPR)

	m.PRLow10Q, m.PRHigh10Q = prRange(c, bundle, quarterly)

	// AlphaOverBond and AbsoluteAlpha stay 0.0: no benchmark return series
	// is wired yet, and the formula is deliberately left undefined until
	// one is.

	if c.defaulted {
		result.Status = models.StatusPartial
	} else {
		result.Status = models.StatusOK
	}
	return result
}

// compoundGrowth is the 6-year CAGR against the record 24 quarters back.
func compoundGrowth(c *calc, trailing []models.TrailingRecord, pick func(models.TrailingRecord) float64) float64 {
	if len(trailing) < cagrWindowSize {
		return c.missing()
	}
	base := pick(trailing[cagrBackIndex])
	latest := pick(trailing[0])
	if base <= 0 || latest <= 0 {
		return c.missing()
	}
	return math.Pow(latest/base, 1.0/cagrYears) - 1
}

// windowAverage is the mean of valuation ÷ denominator over the last n
// valuation-vs-trailing pairs. Any incomplete pair voids the whole window.
func windowAverage(c *calc, bundle *cache.TimeSeriesBundle, trailing []models.TrailingRecord, n int, pick func(models.TrailingRecord) float64) float64 {
	if len(trailing) < n {
		return c.missing()
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		valuation, ok := bundle.ValuationAt(trailing[i].Period)
		den := pick(trailing[i])
		if !ok || den == 0 {
			return c.missing()
		}
		sum += valuation.MarketCap / den
	}
	return sum / float64(n)
}

// revaluation is the percentage gap between a window average and the current
// ratio; both operands must be non-zero.
func revaluation(c *calc, windowAvg, current float64) float64 {
	if windowAvg == 0 || current == 0 {
		return c.missing()
	}
	return (windowAvg - current) / current
}

// prRange is the min/max price-to-revenue over the most recent quarters with
// both a valuation and quarterly revenue present, capped at ten such pairs.
func prRange(c *calc, bundle *cache.TimeSeriesBundle, quarterly []models.QuarterlyRecord) (low, high float64) {
	count := 0
	for _, q := range quarterly {
		if count == prWindow10Q {
			break
		}
		valuation, ok := bundle.ValuationAt(q.Period)
		if !ok || q.Revenue == 0 {
			continue
		}
		ratio := valuation.MarketCap / q.Revenue
		if count == 0 {
			low, high = ratio, ratio
		} else {
			low = math.Min(low, ratio)
			high = math.Max(high, ratio)
		}
		count++
	}
	if count == 0 {
		return c.missing(), c.missing()
	}
	return low, high
}
