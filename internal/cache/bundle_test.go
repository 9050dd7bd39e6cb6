package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
)

func ym(v int) schema.PeriodKey {
	return schema.PeriodKey{Kind: schema.PeriodYearMonth, Value: v}
}

func date(v int) schema.PeriodKey {
	return schema.PeriodKey{Kind: schema.PeriodDate, Value: v}
}

func testBundle() *TimeSeriesBundle {
	return &TimeSeriesBundle{
		Valuations: []models.ValuationRecord{
			{EntityID: 1, Period: date(20240630), MarketCap: 300},
			{EntityID: 1, Period: date(20240331), MarketCap: 200},
			{EntityID: 1, Period: date(20231231), MarketCap: 100},
		},
		Trailing: []models.TrailingRecord{
			{EntityID: 1, Period: ym(202406), Revenue: 120},
			{EntityID: 1, Period: ym(202403), Revenue: 110},
			{EntityID: 1, Period: ym(202312), Revenue: 100},
		},
		Quarterly: []models.QuarterlyRecord{
			{EntityID: 1, Period: ym(202406), Revenue: 40},
			{EntityID: 1, Period: ym(202403), Revenue: 35},
		},
	}
}

func TestValuationAtOrBefore(t *testing.T) {
	b := testBundle()

	rec, ok := b.ValuationAt(date(20240630))
	require.True(t, ok)
	assert.Equal(t, 300.0, rec.MarketCap)

	// A date between snapshots resolves to the preceding one.
	rec, ok = b.ValuationAt(date(20240515))
	require.True(t, ok)
	assert.Equal(t, 200.0, rec.MarketCap)

	// Year-month keys compare against date snapshots on the shared axis.
	rec, ok = b.ValuationAt(ym(202403))
	require.True(t, ok)
	assert.Equal(t, 200.0, rec.MarketCap)

	_, ok = b.ValuationAt(date(20230101))
	assert.False(t, ok)
}

func TestTrailingFromReturnsSuffix(t *testing.T) {
	b := testBundle()

	recs := b.TrailingFrom(ym(202406))
	require.Len(t, recs, 3)
	assert.Equal(t, 120.0, recs[0].Revenue)

	recs = b.TrailingFrom(ym(202403))
	require.Len(t, recs, 2)
	assert.Equal(t, 110.0, recs[0].Revenue)

	assert.Empty(t, b.TrailingFrom(ym(202301)))
}

func TestTrailingAt(t *testing.T) {
	b := testBundle()

	rec, ok := b.TrailingAt(ym(202404))
	require.True(t, ok)
	assert.Equal(t, ym(202403), rec.Period)

	_, ok = b.TrailingAt(ym(202301))
	assert.False(t, ok)
}

func TestQuarterlyFromReturnsSuffix(t *testing.T) {
	b := testBundle()

	recs := b.QuarterlyFrom(ym(202403))
	require.Len(t, recs, 1)
	assert.Equal(t, 35.0, recs[0].Revenue)
}

func TestLatestTrailingPeriod(t *testing.T) {
	b := testBundle()

	p, ok := b.LatestTrailingPeriod()
	require.True(t, ok)
	assert.Equal(t, ym(202406), p)

	_, ok = (&TimeSeriesBundle{}).LatestTrailingPeriod()
	assert.False(t, ok)
}

func TestEmpty(t *testing.T) {
	assert.True(t, (&TimeSeriesBundle{}).Empty())
	assert.False(t, testBundle().Empty())
}
