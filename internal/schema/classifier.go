package schema

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Header geometry of an uploaded sheet. Category captions live on the first
// row and span their block, free-float qualifiers on the second, period
// labels on the third. Columns 0 and 1 always hold the entity name and code.
const (
	HeaderRowCount = 3

	rowCaption   = 0
	rowQualifier = 1
	rowPeriod    = 2

	identityColumnCount = 2
)

// SchemaError is the single fatal classification failure: a required fixed
// column (or the header rows themselves) could not be located. The caller
// must abort before any storage write.
type SchemaError struct {
	Missing string
	Column  int
}

func (e *SchemaError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("schema error: required column %q not found at column %d", e.Missing, e.Column)
	}
	return fmt.Sprintf("schema error: %s", e.Missing)
}

// ColumnClass is the classification of a single column. Exactly one of
// {Category set, Separator true} holds; separators carry no period.
type ColumnClass struct {
	Column    int
	Category  Category
	Period    PeriodKey
	HasPeriod bool
	Separator bool
}

// Classification maps every column of one uploaded sheet to its meaning.
type Classification struct {
	Columns []ColumnClass
}

// Classify reads the fixed header rows and classifies every column. It is a
// pure read: feeding discovered periods into the period registry is the
// caller's job.
func Classify(headerRows [][]string) (*Classification, error) {
	if len(headerRows) < HeaderRowCount {
		return nil, &SchemaError{
			Missing: fmt.Sprintf("expected %d header rows, got %d", HeaderRowCount, len(headerRows)),
			Column:  -1,
		}
	}

	width := 0
	for _, row := range headerRows[:HeaderRowCount] {
		if len(row) > width {
			width = len(row)
		}
	}

	cell := func(row, col int) string {
		if col >= len(headerRows[row]) {
			return ""
		}
		return strings.TrimSpace(headerRows[row][col])
	}

	if width < identityColumnCount {
		return nil, &SchemaError{Missing: "entity name", Column: 0}
	}
	if !containsAny(strings.ToLower(cell(rowCaption, 0)), "name", "company") {
		return nil, &SchemaError{Missing: "entity name", Column: 0}
	}
	if !strings.Contains(strings.ToLower(cell(rowCaption, 1)), "code") {
		return nil, &SchemaError{Missing: "entity code", Column: 1}
	}

	cls := &Classification{Columns: make([]ColumnClass, width)}
	cls.Columns[0] = ColumnClass{Column: 0, Category: CategoryIdentity}
	cls.Columns[1] = ColumnClass{Column: 1, Category: CategoryIdentity}

	// Captions span their block, so carry the last seen caption and
	// qualifier forward until a separator column resets them.
	carriedCategory := CategoryUnknown
	for col := identityColumnCount; col < width; col++ {
		caption := cell(rowCaption, col)
		qualifier := cell(rowQualifier, col)
		periodLabel := cell(rowPeriod, col)

		if caption == "" && qualifier == "" && periodLabel == "" {
			carriedCategory = CategoryUnknown
			cls.Columns[col] = ColumnClass{Column: col, Separator: true}
			continue
		}

		if caption != "" || qualifier != "" {
			carriedCategory = ClassifyLabel(caption + " " + qualifier)
		}

		cc := ColumnClass{Column: col, Category: carriedCategory}
		if carriedCategory.IsTimeSeries() {
			period, err := ParsePeriod(periodLabel)
			switch {
			case err != nil:
				log.Warnf("column %d (%s): %v; excluding from time-series mapping", col, carriedCategory.Label(), err)
			case period.Kind != carriedCategory.PeriodKindOf():
				log.Warnf("column %d (%s): period %q has wrong variant; excluding from time-series mapping",
					col, carriedCategory.Label(), periodLabel)
			default:
				cc.Period = period
				cc.HasPeriod = true
			}
		}
		cls.Columns[col] = cc
	}

	return cls, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DiscoveredPeriods collects the period keys found per category, sorted most
// recent first. This is what the caller feeds into the period registry.
func (c *Classification) DiscoveredPeriods() map[Category][]PeriodKey {
	seen := make(map[Category]map[PeriodKey]bool)
	for _, cc := range c.Columns {
		if !cc.HasPeriod {
			continue
		}
		if seen[cc.Category] == nil {
			seen[cc.Category] = make(map[PeriodKey]bool)
		}
		seen[cc.Category][cc.Period] = true
	}

	out := make(map[Category][]PeriodKey, len(seen))
	for cat, keys := range seen {
		list := make([]PeriodKey, 0, len(keys))
		for k := range keys {
			list = append(list, k)
		}
		SortPeriodsDesc(list)
		out[cat] = list
	}
	return out
}

// ColumnsFor returns the classified time-series columns of one category.
func (c *Classification) ColumnsFor(cat Category) []ColumnClass {
	var out []ColumnClass
	for _, cc := range c.Columns {
		if cc.Category == cat && cc.HasPeriod {
			out = append(out, cc)
		}
	}
	return out
}

// IdentifierColumns returns the identifier-block columns in order (ISIN,
// BSE code, NSE code by convention on the last three non-separator columns).
func (c *Classification) IdentifierColumns() []int {
	var out []int
	for _, cc := range c.Columns {
		if cc.Category == CategoryIdentifiers {
			out = append(out, cc.Column)
		}
	}
	return out
}

// ErrIsSchema reports whether err is the fatal classification failure.
func ErrIsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
