package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodDate(t *testing.T) {
	p, err := ParsePeriod("2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, PeriodDate, p.Kind)
	assert.Equal(t, 20240331, p.Value)
	assert.Equal(t, "2024-03-31", p.String())
}

func TestParsePeriodYearMonth(t *testing.T) {
	p, err := ParsePeriod("202403")
	require.NoError(t, err)
	assert.Equal(t, PeriodYearMonth, p.Kind)
	assert.Equal(t, 202403, p.Value)
	assert.Equal(t, "202403", p.String())
}

func TestParsePeriodFiscalYear(t *testing.T) {
	p, err := ParsePeriod("2023-24")
	require.NoError(t, err)
	assert.Equal(t, PeriodFiscalYear, p.Kind)
	assert.Equal(t, 2023, p.Value)
	assert.Equal(t, "2023-24", p.String())
}

func TestParsePeriodFiscalYearCenturyWrap(t *testing.T) {
	p, err := ParsePeriod("1999-00")
	require.NoError(t, err)
	assert.Equal(t, PeriodFiscalYear, p.Kind)
	assert.Equal(t, 1999, p.Value)
	assert.Equal(t, "1999-00", p.String())
}

func TestParsePeriodRejectsInvalidLabels(t *testing.T) {
	for _, label := range []string{"", "garbage", "2024-03", "202413", "2023-25", "31/03/2024"} {
		_, err := ParsePeriod(label)
		assert.ErrorIs(t, err, ErrUnparseablePeriod, "label %q", label)
	}
}

func TestSortPeriodsDesc(t *testing.T) {
	keys := []PeriodKey{
		{Kind: PeriodYearMonth, Value: 202312},
		{Kind: PeriodYearMonth, Value: 202406},
		{Kind: PeriodYearMonth, Value: 202309},
	}
	SortPeriodsDesc(keys)
	assert.Equal(t, 202406, keys[0].Value)
	assert.Equal(t, 202312, keys[1].Value)
	assert.Equal(t, 202309, keys[2].Value)
}

func TestCompareAcrossKinds(t *testing.T) {
	date := PeriodKey{Kind: PeriodDate, Value: 20240630}
	ym := PeriodKey{Kind: PeriodYearMonth, Value: 202403}
	fiscal := PeriodKey{Kind: PeriodFiscalYear, Value: 2022}

	// A June date is more recent than the March year-month close, which is
	// more recent than fiscal 2022-23 ending March 2023.
	assert.True(t, date.After(ym))
	assert.True(t, ym.After(fiscal))
	assert.True(t, fiscal.Before(date))
}
