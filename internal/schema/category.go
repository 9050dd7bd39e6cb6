package schema

import "strings"

// Category identifies one financial measure family. The set is closed and the
// canonical order below defines export block order; it must never be
// reordered or every downstream column position shifts.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryIdentity
	CategoryValuation
	CategoryValuationFF
	CategoryTrailingRevenue
	CategoryTrailingRevenueFF
	CategoryTrailingProfit
	CategoryTrailingProfitFF
	CategoryQuarterlyRevenue
	CategoryQuarterlyRevenueFF
	CategoryQuarterlyProfit
	CategoryQuarterlyProfitFF
	CategoryReturnOnCapital
	CategoryReturnOnEquity
	CategoryRetention
	CategorySharePrice
	CategoryPriceToRevenue
	CategoryPriceToEarnings
	CategoryIdentifiers
)

// CanonicalOrder is the fixed export block order.
var CanonicalOrder = []Category{
	CategoryIdentity,
	CategoryValuation,
	CategoryValuationFF,
	CategoryTrailingRevenue,
	CategoryTrailingRevenueFF,
	CategoryTrailingProfit,
	CategoryTrailingProfitFF,
	CategoryQuarterlyRevenue,
	CategoryQuarterlyRevenueFF,
	CategoryQuarterlyProfit,
	CategoryQuarterlyProfitFF,
	CategoryReturnOnCapital,
	CategoryReturnOnEquity,
	CategoryRetention,
	CategorySharePrice,
	CategoryPriceToRevenue,
	CategoryPriceToEarnings,
	CategoryIdentifiers,
}

var categoryLabels = map[Category]string{
	CategoryUnknown:            "unknown",
	CategoryIdentity:           "Company",
	CategoryValuation:          "Market Cap",
	CategoryValuationFF:        "Market Cap",
	CategoryTrailingRevenue:    "Trailing Revenue",
	CategoryTrailingRevenueFF:  "Trailing Revenue",
	CategoryTrailingProfit:     "Trailing PAT",
	CategoryTrailingProfitFF:   "Trailing PAT",
	CategoryQuarterlyRevenue:   "Quarterly Revenue",
	CategoryQuarterlyRevenueFF: "Quarterly Revenue",
	CategoryQuarterlyProfit:    "Quarterly PAT",
	CategoryQuarterlyProfitFF:  "Quarterly PAT",
	CategoryReturnOnCapital:    "Return on Capital",
	CategoryReturnOnEquity:     "Return on Equity",
	CategoryRetention:          "Retention Ratio",
	CategorySharePrice:         "Share Price",
	CategoryPriceToRevenue:     "Price to Revenue",
	CategoryPriceToEarnings:    "Price to Earnings",
	CategoryIdentifiers:        "Identifiers",
}

// Label returns the block caption used on the category header row.
func (c Category) Label() string { return categoryLabels[c] }

// Qualifier returns the second-row qualifier for free-float variants.
func (c Category) Qualifier() string {
	switch c {
	case CategoryValuationFF, CategoryTrailingRevenueFF, CategoryTrailingProfitFF,
		CategoryQuarterlyRevenueFF, CategoryQuarterlyProfitFF:
		return "Free Float"
	}
	return ""
}

// IsTimeSeries reports whether the category carries one column per period.
func (c Category) IsTimeSeries() bool {
	switch c {
	case CategoryUnknown, CategoryIdentity, CategoryIdentifiers:
		return false
	}
	return true
}

// FixedWidth returns the column count of the two non-time-series blocks,
// and 0 for dynamic blocks.
func (c Category) FixedWidth() int {
	switch c {
	case CategoryIdentity:
		return len(identityColumnLabels)
	case CategoryIdentifiers:
		return len(identifierColumnLabels)
	}
	return 0
}

// PeriodKindOf returns the period-label variant used by a time-series
// category.
func (c Category) PeriodKindOf() PeriodKind {
	switch c {
	case CategoryValuation, CategoryValuationFF, CategorySharePrice,
		CategoryPriceToRevenue, CategoryPriceToEarnings:
		return PeriodDate
	case CategoryReturnOnCapital, CategoryReturnOnEquity, CategoryRetention:
		return PeriodFiscalYear
	}
	return PeriodYearMonth
}

var (
	identityColumnLabels   = []string{"Company Name", "Company Code"}
	identifierColumnLabels = []string{"ISIN", "BSE Code", "NSE Code"}
)

// labelRule matches when every keyword group is present in the normalized
// label. A group containing "|" matches on any of its alternatives.
type labelRule struct {
	keywords []string
	category Category
}

// labelRules are ordered most specific first: free-float variants before
// their plain counterparts, ratio labels before the raw price label. Ties
// between overlapping keywords resolve to the earlier rule.
var labelRules = []labelRule{
	{[]string{"quarterly", "revenue", "free float"}, CategoryQuarterlyRevenueFF},
	{[]string{"quarterly", "pat|profit", "free float"}, CategoryQuarterlyProfitFF},
	{[]string{"quarterly", "revenue"}, CategoryQuarterlyRevenue},
	{[]string{"quarterly", "pat|profit"}, CategoryQuarterlyProfit},
	{[]string{"trailing|ttm", "revenue", "free float"}, CategoryTrailingRevenueFF},
	{[]string{"trailing|ttm", "pat|profit", "free float"}, CategoryTrailingProfitFF},
	{[]string{"trailing|ttm", "revenue"}, CategoryTrailingRevenue},
	{[]string{"trailing|ttm", "pat|profit"}, CategoryTrailingProfit},
	{[]string{"market cap|valuation", "free float"}, CategoryValuationFF},
	{[]string{"market cap|valuation"}, CategoryValuation},
	{[]string{"return on capital|roce"}, CategoryReturnOnCapital},
	{[]string{"return on equity|roe"}, CategoryReturnOnEquity},
	{[]string{"retention"}, CategoryRetention},
	{[]string{"price to revenue|price/revenue"}, CategoryPriceToRevenue},
	{[]string{"price to earnings|price/earnings"}, CategoryPriceToEarnings},
	{[]string{"share price"}, CategorySharePrice},
	{[]string{"isin"}, CategoryIdentifiers},
	{[]string{"bse"}, CategoryIdentifiers},
	{[]string{"nse"}, CategoryIdentifiers},
}

// ClassifyLabel maps a header label onto a category by keyword matching.
// Unmatched labels return CategoryUnknown.
func ClassifyLabel(label string) Category {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return CategoryUnknown
	}
	for _, rule := range labelRules {
		if matchesRule(normalized, rule.keywords) {
			return rule.category
		}
	}
	return CategoryUnknown
}

func matchesRule(label string, keywords []string) bool {
	for _, group := range keywords {
		matched := false
		for _, alt := range strings.Split(group, "|") {
			if strings.Contains(label, alt) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
