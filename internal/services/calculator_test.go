package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/epeers/fundsheet/internal/cache"
	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
)

func ymKey(v int) schema.PeriodKey {
	return schema.PeriodKey{Kind: schema.PeriodYearMonth, Value: v}
}

// quarterKeys returns n quarter-end year-month keys counting back from
// 202406, most recent first.
func quarterKeys(n int) []schema.PeriodKey {
	keys := make([]schema.PeriodKey, 0, n)
	year, month := 2024, 6
	for i := 0; i < n; i++ {
		keys = append(keys, ymKey(year*100+month))
		month -= 3
		if month <= 0 {
			month += 12
			year--
		}
	}
	return keys
}

func TestComputeMetricsCurrentRatiosAndGrowth(t *testing.T) {
	periods := quarterKeys(4)
	bundle := &cache.TimeSeriesBundle{
		Valuations: []models.ValuationRecord{
			{EntityID: 1, Period: periods[0], MarketCap: 1000},
		},
		Trailing: []models.TrailingRecord{
			{EntityID: 1, Period: periods[0], Revenue: 500, Profit: 50},
		},
		Quarterly: []models.QuarterlyRecord{
			{EntityID: 1, Period: periods[0], Revenue: 100},
			{EntityID: 1, Period: periods[1], Revenue: 90},
			{EntityID: 1, Period: periods[2], Revenue: 80},
			{EntityID: 1, Period: periods[3], Revenue: 70},
		},
	}

	result := ComputeMetrics(1, periods[0], bundle)

	assert.InDelta(t, 10.0, result.Metrics.PATM, 1e-9)
	assert.InDelta(t, 20.0, result.Metrics.CurrentPE, 1e-9)
	assert.InDelta(t, 2.0, result.Metrics.CurrentPR, 1e-9)
	assert.InDelta(t, 5.0, result.Metrics.Yield, 1e-9)

	assert.InDelta(t, 10.0/90.0, result.Metrics.QoQGrowth, 1e-9)
	assert.InDelta(t, 30.0/70.0, result.Metrics.YoYGrowth, 1e-9)

	assert.InDelta(t, 1000.0, result.Fundamentals.Valuation, 1e-9)
	assert.InDelta(t, 500.0, result.Fundamentals.TrailingRevenue, 1e-9)
	assert.InDelta(t, 50.0, result.Fundamentals.TrailingProfit, 1e-9)

	// Only one trailing record, so the long-window metrics defaulted.
	assert.Equal(t, models.StatusPartial, result.Status)
	assert.Zero(t, result.Metrics.RevenueCAGR6Y)
}

func TestComputeMetricsEmptyBundle(t *testing.T) {
	assert.NotPanics(t, func() {
		result := ComputeMetrics(7, ymKey(202406), &cache.TimeSeriesBundle{})
		assert.Equal(t, models.StatusNoData, result.Status)
		assert.Equal(t, models.MetricSet{}, result.Metrics)
	})

	result := ComputeMetrics(7, ymKey(202406), nil)
	assert.Equal(t, models.StatusNoData, result.Status)
}

func TestComputeMetricsYoYNeedsFourQuarters(t *testing.T) {
	periods := quarterKeys(3)
	bundle := &cache.TimeSeriesBundle{
		Quarterly: []models.QuarterlyRecord{
			{EntityID: 1, Period: periods[0], Revenue: 100},
			{EntityID: 1, Period: periods[1], Revenue: 90},
			{EntityID: 1, Period: periods[2], Revenue: 80},
		},
	}

	result := ComputeMetrics(1, periods[0], bundle)
	assert.NotZero(t, result.Metrics.QoQGrowth)
	assert.Zero(t, result.Metrics.YoYGrowth)
	assert.Equal(t, models.StatusPartial, result.Status)
}

func TestComputeMetricsCompoundGrowth(t *testing.T) {
	periods := quarterKeys(24)
	trailing := make([]models.TrailingRecord, 24)
	for i, p := range periods {
		trailing[i] = models.TrailingRecord{EntityID: 1, Period: p, Revenue: 100, Profit: 10}
	}
	trailing[0].Revenue = 200
	trailing[23].Revenue = 100
	bundle := &cache.TimeSeriesBundle{Trailing: trailing}

	result := ComputeMetrics(1, periods[0], bundle)

	want := math.Pow(2, 1.0/6.0) - 1
	assert.InDelta(t, want, result.Metrics.RevenueCAGR6Y, 1e-9)
	assert.Zero(t, result.Metrics.ProfitCAGR6Y) // flat profit series compounds to 0
}

func TestComputeMetricsWindowAverages(t *testing.T) {
	periods := quarterKeys(8)
	bundle := &cache.TimeSeriesBundle{}
	for _, p := range periods {
		bundle.Valuations = append(bundle.Valuations, models.ValuationRecord{EntityID: 1, Period: p, MarketCap: 100})
		bundle.Trailing = append(bundle.Trailing, models.TrailingRecord{EntityID: 1, Period: p, Revenue: 50, Profit: 10})
	}

	result := ComputeMetrics(1, periods[0], bundle)

	assert.InDelta(t, 10.0, result.Metrics.AvgPE2Y, 1e-9)
	assert.InDelta(t, 2.0, result.Metrics.AvgPR2Y, 1e-9)
	// Eight records cannot fill the five-year window; no small-sample mean.
	assert.Zero(t, result.Metrics.AvgPE5Y)
	assert.Zero(t, result.Metrics.AvgPR5Y)

	// Current PE equals the window average, so the revaluation gap is zero.
	assert.InDelta(t, 0.0, result.Metrics.RevalPE2Y, 1e-9)
}

func TestComputeMetricsPriceToRevenueRange(t *testing.T) {
	periods := quarterKeys(3)
	bundle := &cache.TimeSeriesBundle{
		Valuations: []models.ValuationRecord{
			{EntityID: 1, Period: periods[0], MarketCap: 300},
			{EntityID: 1, Period: periods[1], MarketCap: 200},
			{EntityID: 1, Period: periods[2], MarketCap: 100},
		},
		Quarterly: []models.QuarterlyRecord{
			{EntityID: 1, Period: periods[0], Revenue: 100},
			{EntityID: 1, Period: periods[1], Revenue: 100},
			{EntityID: 1, Period: periods[2], Revenue: 100},
		},
	}

	result := ComputeMetrics(1, periods[0], bundle)

	assert.InDelta(t, 1.0, result.Metrics.PRLow10Q, 1e-9)
	assert.InDelta(t, 3.0, result.Metrics.PRHigh10Q, 1e-9)
}

func TestComputeMetricsAlphaFieldsStayZero(t *testing.T) {
	periods := quarterKeys(24)
	bundle := &cache.TimeSeriesBundle{}
	for i, p := range periods {
		bundle.Valuations = append(bundle.Valuations, models.ValuationRecord{EntityID: 1, Period: p, MarketCap: 1000 - float64(i)})
		bundle.Trailing = append(bundle.Trailing, models.TrailingRecord{EntityID: 1, Period: p, Revenue: 500 - float64(i)*5, Profit: 50 - float64(i)})
		bundle.Quarterly = append(bundle.Quarterly, models.QuarterlyRecord{EntityID: 1, Period: p, Revenue: 120 - float64(i)})
	}

	result := ComputeMetrics(1, periods[0], bundle)

	assert.Equal(t, models.StatusOK, result.Status)
	assert.Zero(t, result.Metrics.AlphaOverBond)
	assert.Zero(t, result.Metrics.AbsoluteAlpha)
}
