package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/epeers/fundsheet/internal/models"
)

func TestAggregateHoldingsWeightedMean(t *testing.T) {
	holdings := []WeightedHolding{
		{EntityID: 1, MarketValue: 300, Metrics: models.MetricSet{Yield: 10, Growth: 0.1}},
		{EntityID: 2, MarketValue: 700, Metrics: models.MetricSet{Yield: 20, Growth: 0.3}},
	}

	agg := AggregateHoldings(holdings)

	assert.InDelta(t, 17.0, agg.Metrics.Yield, 1e-9)
	assert.InDelta(t, 0.24, agg.Metrics.Growth, 1e-9)
	assert.False(t, agg.UpdatedAt.IsZero())
}

func TestAggregateHoldingsRatioOfTotals(t *testing.T) {
	// A large expensive holding and a tiny cheap one. The portfolio PE must
	// come from the weighted totals, not from averaging the entity PEs.
	holdings := []WeightedHolding{
		{
			EntityID:    1,
			MarketValue: 900,
			Metrics:     models.MetricSet{CurrentPE: 10},
			Fundamentals: models.Fundamentals{
				Valuation:       1000,
				TrailingRevenue: 400,
				TrailingProfit:  100,
			},
		},
		{
			EntityID:    2,
			MarketValue: 100,
			Metrics:     models.MetricSet{CurrentPE: 20},
			Fundamentals: models.Fundamentals{
				Valuation:       10,
				TrailingRevenue: 2,
				TrailingProfit:  0.5,
			},
		},
	}

	agg := AggregateHoldings(holdings)

	// weights 0.9 / 0.1:
	//   valuation 900 + 1 = 901, profit 90 + 0.05 = 90.05, revenue 360 + 0.2
	wantPE := 901.0 / 90.05
	wantPR := 901.0 / 360.2
	wantPATM := 90.05 / 360.2 * 100

	assert.InDelta(t, wantPE, agg.Metrics.CurrentPE, 1e-9)
	assert.InDelta(t, wantPR, agg.Metrics.CurrentPR, 1e-9)
	assert.InDelta(t, wantPATM, agg.Metrics.PATM, 1e-9)

	average := (10.0 + 20.0) / 2
	assert.Greater(t, math.Abs(average-agg.Metrics.CurrentPE), 1.0)
}

func TestAggregateHoldingsSkipsZeroMarketValue(t *testing.T) {
	holdings := []WeightedHolding{
		{EntityID: 1, MarketValue: 500, Metrics: models.MetricSet{Yield: 8}},
		{EntityID: 2, MarketValue: 0, Metrics: models.MetricSet{Yield: 99}},
		{EntityID: 3, MarketValue: -10, Metrics: models.MetricSet{Yield: 99}},
	}

	agg := AggregateHoldings(holdings)
	assert.InDelta(t, 8.0, agg.Metrics.Yield, 1e-9)
}

func TestAggregateHoldingsAllZeroMarketValues(t *testing.T) {
	holdings := []WeightedHolding{
		{EntityID: 1, MarketValue: 0, Metrics: models.MetricSet{Yield: 10}},
		{EntityID: 2, MarketValue: 0, Metrics: models.MetricSet{Yield: 20}},
	}

	agg := AggregateHoldings(holdings)
	assert.Equal(t, models.MetricSet{}, agg.Metrics)
}

func TestAggregateHoldingsEmpty(t *testing.T) {
	agg := AggregateHoldings(nil)
	assert.Equal(t, models.MetricSet{}, agg.Metrics)
}
