package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectBlockPositions(t *testing.T) {
	registry := NewPeriodRegistry()
	registry.Add(CategoryTrailingRevenue, ym(202406), ym(202403))
	registry.Add(CategoryQuarterlyProfit, ym(202406))

	layout := Project(registry, CanonicalOrder)

	// identity(0..1), sep(2), revenue(3..4), sep(5), profit(6), sep(7),
	// identifiers(8..10)
	require.Len(t, layout.Blocks, 4)
	assert.Equal(t, 11, layout.Width)

	identity, ok := layout.Block(CategoryIdentity)
	require.True(t, ok)
	assert.Equal(t, 0, identity.Start)
	assert.Equal(t, 1, identity.End)

	revenue, ok := layout.Block(CategoryTrailingRevenue)
	require.True(t, ok)
	assert.Equal(t, 3, revenue.Start)
	assert.Equal(t, 4, revenue.End)
	assert.Equal(t, []PeriodKey{ym(202406), ym(202403)}, revenue.Periods)

	profit, ok := layout.Block(CategoryQuarterlyProfit)
	require.True(t, ok)
	assert.Equal(t, 6, profit.Start)
	assert.Equal(t, 6, profit.End)

	identifiers, ok := layout.Block(CategoryIdentifiers)
	require.True(t, ok)
	assert.Equal(t, 8, identifiers.Start)
	assert.Equal(t, 10, identifiers.End)
}

func TestProjectSkipsEmptyCategories(t *testing.T) {
	layout := Project(NewPeriodRegistry(), CanonicalOrder)

	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, 6, layout.Width)

	identity := layout.Blocks[0]
	assert.Equal(t, CategoryIdentity, identity.Category)
	assert.Equal(t, 0, identity.Start)
	assert.Equal(t, 1, identity.End)

	identifiers := layout.Blocks[1]
	assert.Equal(t, CategoryIdentifiers, identifiers.Category)
	assert.Equal(t, 3, identifiers.Start)
	assert.Equal(t, 5, identifiers.End)

	_, ok := layout.Block(CategoryTrailingRevenue)
	assert.False(t, ok)
}

func TestProjectLaterBlocksShiftWhenEarlierOnesGrow(t *testing.T) {
	registry := NewPeriodRegistry()
	registry.Add(CategoryTrailingRevenue, ym(202403))
	registry.Add(CategoryQuarterlyProfit, ym(202403))

	before := Project(registry, CanonicalOrder)
	blockBefore, ok := before.Block(CategoryQuarterlyProfit)
	require.True(t, ok)

	registry.Add(CategoryTrailingRevenue, ym(202406))

	after := Project(registry, CanonicalOrder)
	blockAfter, ok := after.Block(CategoryQuarterlyProfit)
	require.True(t, ok)

	assert.Equal(t, blockBefore.Start+1, blockAfter.Start)
	assert.Equal(t, before.Width+1, after.Width)
}

func TestHeaderRowsRenderBlockCaptions(t *testing.T) {
	registry := NewPeriodRegistry()
	registry.Add(CategoryTrailingRevenueFF, ym(202406), ym(202403))

	layout := Project(registry, CanonicalOrder)
	rows := layout.HeaderRows()
	require.Len(t, rows, HeaderRowCount)

	block, ok := layout.Block(CategoryTrailingRevenueFF)
	require.True(t, ok)

	assert.Equal(t, "Trailing Revenue", rows[rowCaption][block.Start])
	assert.Equal(t, "Free Float", rows[rowQualifier][block.Start])
	assert.Equal(t, "", rows[rowCaption][block.Start+1])
	assert.Equal(t, "202406", rows[rowPeriod][block.Start])
	assert.Equal(t, "202403", rows[rowPeriod][block.Start+1])

	assert.Equal(t, "Company Name", rows[rowCaption][0])
	assert.Equal(t, "Company Code", rows[rowCaption][1])
	assert.Equal(t, "ISIN", rows[rowCaption][block.End+2])
}
