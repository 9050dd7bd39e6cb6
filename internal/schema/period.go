package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// PeriodKind distinguishes the three period-label variants that appear in
// uploaded sheets. Within one category every period shares one kind.
type PeriodKind int

const (
	// PeriodDate is an absolute calendar date (valuation and price series).
	PeriodDate PeriodKind = iota
	// PeriodYearMonth is a 6-digit YYYYMM code (trailing and quarterly series).
	PeriodYearMonth
	// PeriodFiscalYear is a hyphenated YYYY-YY fiscal-year label (annual ratios).
	PeriodFiscalYear
)

// ErrUnparseablePeriod is returned when a header cell matches none of the
// accepted period formats. Callers treat this as non-fatal: the column is
// excluded from time-series mapping.
var ErrUnparseablePeriod = errors.New("unparseable period label")

// PeriodKey is a semantic time label for a time-series column. It is
// comparable independent of which upload introduced it.
//
// Value encoding by kind: PeriodDate stores YYYYMMDD, PeriodYearMonth stores
// YYYYMM, PeriodFiscalYear stores the fiscal start year.
type PeriodKey struct {
	Kind  PeriodKind
	Value int
}

// ParsePeriod parses a period label. Formats are tried in priority order:
// ISO date, 6-digit year-month code, hyphenated fiscal-year label.
func ParsePeriod(s string) (PeriodKey, error) {
	if s == "" {
		return PeriodKey{}, ErrUnparseablePeriod
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return PeriodKey{Kind: PeriodDate, Value: t.Year()*10000 + int(t.Month())*100 + t.Day()}, nil
	}

	if len(s) == 6 {
		if ym, err := strconv.Atoi(s); err == nil {
			month := ym % 100
			if month >= 1 && month <= 12 {
				return PeriodKey{Kind: PeriodYearMonth, Value: ym}, nil
			}
		}
	}

	// Fiscal-year labels look like "2023-24"; the suffix must be the start
	// year plus one, which also disambiguates them from YYYY-MM prefixes.
	if len(s) == 7 && s[4] == '-' {
		start, err1 := strconv.Atoi(s[:4])
		end, err2 := strconv.Atoi(s[5:])
		if err1 == nil && err2 == nil && (start+1)%100 == end {
			return PeriodKey{Kind: PeriodFiscalYear, Value: start}, nil
		}
	}

	return PeriodKey{}, fmt.Errorf("%w: %q", ErrUnparseablePeriod, s)
}

// IsZero reports whether the key is the zero PeriodKey (no period).
func (p PeriodKey) IsZero() bool {
	return p.Value == 0
}

// ordinal maps every kind onto one YYYYMMDD axis so keys of different kinds
// stay mutually ordered. Year-month codes sort at month end; fiscal years
// sort at their March 31 close.
func (p PeriodKey) ordinal() int {
	switch p.Kind {
	case PeriodDate:
		return p.Value
	case PeriodYearMonth:
		return p.Value*100 + 31
	case PeriodFiscalYear:
		return (p.Value+1)*10000 + 331
	}
	return 0
}

// Compare returns -1, 0 or 1 as p sorts before, equal to or after q in time.
func (p PeriodKey) Compare(q PeriodKey) int {
	po, qo := p.ordinal(), q.ordinal()
	switch {
	case po < qo:
		return -1
	case po > qo:
		return 1
	}
	return 0
}

// After reports whether p is strictly more recent than q.
func (p PeriodKey) After(q PeriodKey) bool { return p.Compare(q) > 0 }

// Before reports whether p is strictly older than q.
func (p PeriodKey) Before(q PeriodKey) bool { return p.Compare(q) < 0 }

// String renders the key in the same format ParsePeriod accepts.
func (p PeriodKey) String() string {
	switch p.Kind {
	case PeriodDate:
		return fmt.Sprintf("%04d-%02d-%02d", p.Value/10000, p.Value/100%100, p.Value%100)
	case PeriodYearMonth:
		return fmt.Sprintf("%06d", p.Value)
	case PeriodFiscalYear:
		return fmt.Sprintf("%04d-%02d", p.Value, (p.Value+1)%100)
	}
	return ""
}

// SortPeriodsDesc sorts keys in place, most recent first.
func SortPeriodsDesc(keys []PeriodKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) > 0
	})
}
