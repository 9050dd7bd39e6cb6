package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeaderRows() [][]string {
	// identity | sep | trailing revenue (2 cols) | sep | quarterly PAT free
	// float (1 col) | sep | identifiers
	return [][]string{
		{"Company Name", "Company Code", "", "Trailing Revenue", "", "", "Quarterly PAT", "", "ISIN", "BSE Code", "NSE Code"},
		{"", "", "", "", "", "", "Free Float", "", "", "", ""},
		{"", "", "", "202406", "202403", "", "202406", "", "", "", ""},
	}
}

func TestClassifyMapsColumnsToCategoriesAndPeriods(t *testing.T) {
	cls, err := Classify(testHeaderRows())
	require.NoError(t, err)

	assert.Equal(t, CategoryIdentity, cls.Columns[0].Category)
	assert.Equal(t, CategoryIdentity, cls.Columns[1].Category)
	assert.True(t, cls.Columns[2].Separator)

	assert.Equal(t, CategoryTrailingRevenue, cls.Columns[3].Category)
	assert.Equal(t, ym(202406), cls.Columns[3].Period)
	// caption carries across the block
	assert.Equal(t, CategoryTrailingRevenue, cls.Columns[4].Category)
	assert.Equal(t, ym(202403), cls.Columns[4].Period)

	assert.Equal(t, CategoryQuarterlyProfitFF, cls.Columns[6].Category)
	assert.Equal(t, []int{8, 9, 10}, cls.IdentifierColumns())
}

func TestClassifySpecificityPrefersFreeFloatVariant(t *testing.T) {
	assert.Equal(t, CategoryTrailingRevenueFF, ClassifyLabel("Trailing Revenue Free Float"))
	assert.Equal(t, CategoryTrailingRevenue, ClassifyLabel("Trailing Revenue"))
	assert.Equal(t, CategoryQuarterlyProfitFF, ClassifyLabel("Quarterly PAT Free Float"))
	assert.Equal(t, CategoryValuationFF, ClassifyLabel("Market Cap Free Float"))
	assert.Equal(t, CategoryPriceToRevenue, ClassifyLabel("Price to Revenue"))
	assert.Equal(t, CategorySharePrice, ClassifyLabel("Share Price"))
	assert.Equal(t, CategoryUnknown, ClassifyLabel("Dividend History"))
}

func TestClassifyToleratesUnparseablePeriod(t *testing.T) {
	rows := testHeaderRows()
	rows[2][4] = "not-a-period"

	cls, err := Classify(rows)
	require.NoError(t, err)

	assert.Equal(t, CategoryTrailingRevenue, cls.Columns[4].Category)
	assert.False(t, cls.Columns[4].HasPeriod)
	// the rest of the block is unaffected
	assert.True(t, cls.Columns[3].HasPeriod)
}

func TestClassifyRejectsWrongPeriodVariant(t *testing.T) {
	rows := testHeaderRows()
	rows[2][3] = "2024-06-30" // a date label on a year-month category

	cls, err := Classify(rows)
	require.NoError(t, err)
	assert.False(t, cls.Columns[3].HasPeriod)
}

func TestClassifyFailsOnShortHeader(t *testing.T) {
	_, err := Classify([][]string{{"Company Name", "Company Code"}})
	assert.True(t, ErrIsSchema(err))
}

func TestClassifyFailsOnMissingIdentityColumns(t *testing.T) {
	rows := testHeaderRows()
	rows[0][0] = "Ticker"
	_, err := Classify(rows)
	require.Error(t, err)
	assert.True(t, ErrIsSchema(err))
	assert.Contains(t, err.Error(), "entity name")

	rows = testHeaderRows()
	rows[0][1] = "Something"
	_, err = Classify(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity code")
}

func TestDiscoveredPeriodsAreSortedDescending(t *testing.T) {
	cls, err := Classify(testHeaderRows())
	require.NoError(t, err)

	discovered := cls.DiscoveredPeriods()
	assert.Equal(t, []PeriodKey{ym(202406), ym(202403)}, discovered[CategoryTrailingRevenue])
	assert.Equal(t, []PeriodKey{ym(202406)}, discovered[CategoryQuarterlyProfitFF])
}

// Round-trip law: classifying the projector's rendered header rows must
// reproduce the layout's column positions exactly.
func TestClassifyProjectRoundTrip(t *testing.T) {
	registry := NewPeriodRegistry()
	registry.Add(CategoryValuation, PeriodKey{Kind: PeriodDate, Value: 20240630}, PeriodKey{Kind: PeriodDate, Value: 20240331})
	registry.Add(CategoryValuationFF, PeriodKey{Kind: PeriodDate, Value: 20240630})
	registry.Add(CategoryTrailingRevenue, ym(202406), ym(202403), ym(202312))
	registry.Add(CategoryTrailingRevenueFF, ym(202406))
	registry.Add(CategoryQuarterlyProfit, ym(202406), ym(202403))
	registry.Add(CategoryReturnOnCapital, PeriodKey{Kind: PeriodFiscalYear, Value: 2023})
	registry.Add(CategorySharePrice, PeriodKey{Kind: PeriodDate, Value: 20240630})

	layout := Project(registry, CanonicalOrder)
	cls, err := Classify(layout.HeaderRows())
	require.NoError(t, err)
	require.Len(t, cls.Columns, layout.Width)

	classified := make(map[int]ColumnClass)
	for _, cc := range cls.Columns {
		classified[cc.Column] = cc
	}

	for _, block := range layout.Blocks {
		for i := 0; i < block.Width(); i++ {
			cc := classified[block.Start+i]
			assert.Equal(t, block.Category, cc.Category, "column %d", block.Start+i)
			if block.Category.IsTimeSeries() {
				require.True(t, cc.HasPeriod, "column %d", block.Start+i)
				assert.Equal(t, block.Periods[i], cc.Period, "column %d", block.Start+i)
			}
		}
		if block.End+1 < layout.Width {
			assert.True(t, classified[block.End+1].Separator, "separator after %v", block.Category)
		}
	}
}
