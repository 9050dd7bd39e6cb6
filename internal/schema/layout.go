package schema

// Block is one category's contiguous column range in the export layout.
// Periods is nil for the two fixed blocks.
type Block struct {
	Category Category
	Start    int
	End      int
	Periods  []PeriodKey
}

// Width returns the number of columns the block occupies.
func (b Block) Width() int { return b.End - b.Start + 1 }

// BlockLayout is the columnar projection of a period registry: per category
// the contiguous column range and its period ordering, with a single blank
// separator column between adjacent blocks.
//
// Positions are derived from the live registry, never cached across ingests:
// a block only grows at its end (periods sort most recent first and
// registries are append-only) but every later block's absolute position
// shifts when an earlier one grows.
type BlockLayout struct {
	Blocks []Block
	Width  int
}

// Project computes block positions for the given category order. Zero-width
// dynamic blocks (category with no known periods) contribute neither columns
// nor a separator.
func Project(registry *PeriodRegistry, categoriesInOrder []Category) BlockLayout {
	var layout BlockLayout
	col := 0
	for _, cat := range categoriesInOrder {
		var periods []PeriodKey
		width := cat.FixedWidth()
		if cat.IsTimeSeries() {
			periods = registry.Periods(cat)
			width = len(periods)
		}
		if width == 0 {
			continue
		}

		if len(layout.Blocks) > 0 {
			col++ // separator
		}
		layout.Blocks = append(layout.Blocks, Block{
			Category: cat,
			Start:    col,
			End:      col + width - 1,
			Periods:  periods,
		})
		col += width
	}
	layout.Width = col
	return layout
}

// Block returns the block for a category, if it has any columns.
func (l BlockLayout) Block(cat Category) (Block, bool) {
	for _, b := range l.Blocks {
		if b.Category == cat {
			return b, true
		}
	}
	return Block{}, false
}

// HeaderRows renders the layout's header rows: the caption row with one
// label at each block start, the qualifier row for free-float variants, and
// the period row with one label per time-series column. Classify on this
// output reproduces the layout's column positions exactly.
func (l BlockLayout) HeaderRows() [][]string {
	rows := make([][]string, HeaderRowCount)
	for i := range rows {
		rows[i] = make([]string, l.Width)
	}

	for _, b := range l.Blocks {
		switch b.Category {
		case CategoryIdentity:
			for i, label := range identityColumnLabels {
				rows[rowCaption][b.Start+i] = label
			}
		case CategoryIdentifiers:
			for i, label := range identifierColumnLabels {
				rows[rowCaption][b.Start+i] = label
			}
		default:
			rows[rowCaption][b.Start] = b.Category.Label()
			if q := b.Category.Qualifier(); q != "" {
				rows[rowQualifier][b.Start] = q
			}
			for i, p := range b.Periods {
				rows[rowPeriod][b.Start+i] = p.String()
			}
		}
	}
	return rows
}
