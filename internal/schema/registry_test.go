package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ym(v int) PeriodKey { return PeriodKey{Kind: PeriodYearMonth, Value: v} }

func TestRegistryAddSortsDescendingAndDeduplicates(t *testing.T) {
	r := NewPeriodRegistry()

	added := r.Add(CategoryTrailingRevenue, ym(202312), ym(202406), ym(202312))
	assert.Equal(t, 2, added)

	periods := r.Periods(CategoryTrailingRevenue)
	assert.Equal(t, []PeriodKey{ym(202406), ym(202312)}, periods)
}

func TestRegistryIsMonotonic(t *testing.T) {
	r := NewPeriodRegistry()
	r.Add(CategoryQuarterlyProfit, ym(202312), ym(202403))
	before := r.Periods(CategoryQuarterlyProfit)

	// A second ingest reintroducing a known period is a no-op; a new one
	// only grows the set.
	assert.Equal(t, 0, r.Add(CategoryQuarterlyProfit, ym(202403)))
	assert.Equal(t, 1, r.Add(CategoryQuarterlyProfit, ym(202406)))

	after := r.Periods(CategoryQuarterlyProfit)
	assert.GreaterOrEqual(t, len(after), len(before))
	for _, p := range before {
		assert.Contains(t, after, p)
	}
}

func TestRegistryIgnoresZeroKeys(t *testing.T) {
	r := NewPeriodRegistry()
	assert.Equal(t, 0, r.Add(CategoryValuation, PeriodKey{}))
	assert.Equal(t, 0, r.Len(CategoryValuation))
}

func TestRegistryPeriodsReturnsCopy(t *testing.T) {
	r := NewPeriodRegistry()
	r.Add(CategoryValuation, ym(202403))

	periods := r.Periods(CategoryValuation)
	periods[0] = ym(190001)
	assert.Equal(t, ym(202403), r.Periods(CategoryValuation)[0])
}
