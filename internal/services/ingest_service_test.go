package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epeers/fundsheet/internal/schema"
)

func TestParseNumericStripsThousandsSeparators(t *testing.T) {
	v, err := parseNumeric("1,23,456.78")
	require.NoError(t, err)
	assert.InDelta(t, 123456.78, v, 1e-9)

	v, err = parseNumeric("-42.5")
	require.NoError(t, err)
	assert.InDelta(t, -42.5, v, 1e-9)

	_, err = parseNumeric("n/a")
	assert.Error(t, err)
}

func TestRecordAccumulatorMergesSiblingCategories(t *testing.T) {
	p := ymKey(202406)
	acc := newRecordAccumulator(9)

	acc.set(schema.CategoryTrailingRevenue, p, 500)
	acc.set(schema.CategoryTrailingRevenueFF, p, 250)
	acc.set(schema.CategoryTrailingProfit, p, 50)

	require.Len(t, acc.trailing, 1)
	rec := acc.trailing[p]
	assert.Equal(t, int64(9), rec.EntityID)
	assert.Equal(t, 500.0, rec.Revenue)
	assert.Equal(t, 250.0, rec.RevenueFF)
	assert.Equal(t, 50.0, rec.Profit)
	assert.Zero(t, rec.ProfitFF)
}

func TestRecordAccumulatorSeparatesPeriods(t *testing.T) {
	acc := newRecordAccumulator(9)
	acc.set(schema.CategoryQuarterlyRevenue, ymKey(202406), 100)
	acc.set(schema.CategoryQuarterlyRevenue, ymKey(202403), 90)

	require.Len(t, acc.quarterly, 2)
	assert.Equal(t, 100.0, acc.quarterly[ymKey(202406)].Revenue)
	assert.Equal(t, 90.0, acc.quarterly[ymKey(202403)].Revenue)
}
