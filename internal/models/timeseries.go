package models

import "github.com/epeers/fundsheet/internal/schema"

// RecordKind names the five stored time-series kinds. Each kind has its own
// fact table and its own period-label variant.
type RecordKind string

const (
	KindValuation   RecordKind = "valuation"
	KindTrailing    RecordKind = "trailing"
	KindQuarterly   RecordKind = "quarterly"
	KindAnnualRatio RecordKind = "annual_ratio"
	KindPrice       RecordKind = "price"
)

// AllRecordKinds lists every kind, in bulk-load order.
var AllRecordKinds = []RecordKind{KindValuation, KindTrailing, KindQuarterly, KindAnnualRatio, KindPrice}

// KindForCategory maps a time-series category onto the record kind that
// stores its values. Non-time-series categories return "".
func KindForCategory(cat schema.Category) RecordKind {
	switch cat {
	case schema.CategoryValuation, schema.CategoryValuationFF:
		return KindValuation
	case schema.CategoryTrailingRevenue, schema.CategoryTrailingRevenueFF,
		schema.CategoryTrailingProfit, schema.CategoryTrailingProfitFF:
		return KindTrailing
	case schema.CategoryQuarterlyRevenue, schema.CategoryQuarterlyRevenueFF,
		schema.CategoryQuarterlyProfit, schema.CategoryQuarterlyProfitFF:
		return KindQuarterly
	case schema.CategoryReturnOnCapital, schema.CategoryReturnOnEquity, schema.CategoryRetention:
		return KindAnnualRatio
	case schema.CategorySharePrice, schema.CategoryPriceToRevenue, schema.CategoryPriceToEarnings:
		return KindPrice
	}
	return ""
}

// CategoriesForKind is the inverse of KindForCategory, in canonical order.
func CategoriesForKind(kind RecordKind) []schema.Category {
	var out []schema.Category
	for _, cat := range schema.CanonicalOrder {
		if KindForCategory(cat) == kind {
			out = append(out, cat)
		}
	}
	return out
}

// ValuationRecord is a market-cap snapshot at one date.
type ValuationRecord struct {
	EntityID    int64
	Period      schema.PeriodKey
	MarketCap   float64
	MarketCapFF float64
}

// TrailingRecord holds trailing-twelve-month financials for one year-month.
type TrailingRecord struct {
	EntityID  int64
	Period    schema.PeriodKey
	Revenue   float64
	RevenueFF float64
	Profit    float64
	ProfitFF  float64
}

// QuarterlyRecord holds single-quarter financials for one year-month.
type QuarterlyRecord struct {
	EntityID  int64
	Period    schema.PeriodKey
	Revenue   float64
	RevenueFF float64
	Profit    float64
	ProfitFF  float64
}

// AnnualRatioRecord holds the fiscal-year ratio set.
type AnnualRatioRecord struct {
	EntityID        int64
	Period          schema.PeriodKey
	ReturnOnCapital float64
	ReturnOnEquity  float64
	Retention       float64
}

// PriceRecord holds the share-price and price-ratio series at one date.
type PriceRecord struct {
	EntityID        int64
	Period          schema.PeriodKey
	Price           float64
	PriceToRevenue  float64
	PriceToEarnings float64
}
