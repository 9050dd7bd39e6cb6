package cache

import (
	"context"
	"fmt"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/epeers/fundsheet/internal/schema"
)

// TimeSeriesBundle is one entity's complete stored time series, every kind
// sorted most recent first. It is a read-only point-in-time snapshot for the
// duration of one calculation batch; concurrent writes are not reflected
// until the next load.
type TimeSeriesBundle struct {
	Valuations []models.ValuationRecord
	Trailing   []models.TrailingRecord
	Quarterly  []models.QuarterlyRecord
	Annual     []models.AnnualRatioRecord
	Prices     []models.PriceRecord
}

// Empty reports whether the bundle holds no records of any kind.
func (b *TimeSeriesBundle) Empty() bool {
	return len(b.Valuations) == 0 && len(b.Trailing) == 0 && len(b.Quarterly) == 0 &&
		len(b.Annual) == 0 && len(b.Prices) == 0
}

// ValuationAt returns the latest valuation at or before the period.
func (b *TimeSeriesBundle) ValuationAt(p schema.PeriodKey) (models.ValuationRecord, bool) {
	for _, rec := range b.Valuations {
		if !rec.Period.After(p) {
			return rec, true
		}
	}
	return models.ValuationRecord{}, false
}

// TrailingAt returns the latest trailing record at or before the period.
func (b *TimeSeriesBundle) TrailingAt(p schema.PeriodKey) (models.TrailingRecord, bool) {
	recs := b.TrailingFrom(p)
	if len(recs) == 0 {
		return models.TrailingRecord{}, false
	}
	return recs[0], true
}

// TrailingFrom returns all trailing records at or before the period, most
// recent first.
func (b *TimeSeriesBundle) TrailingFrom(p schema.PeriodKey) []models.TrailingRecord {
	for i, rec := range b.Trailing {
		if !rec.Period.After(p) {
			return b.Trailing[i:]
		}
	}
	return nil
}

// QuarterlyFrom returns all quarterly records at or before the period, most
// recent first.
func (b *TimeSeriesBundle) QuarterlyFrom(p schema.PeriodKey) []models.QuarterlyRecord {
	for i, rec := range b.Quarterly {
		if !rec.Period.After(p) {
			return b.Quarterly[i:]
		}
	}
	return nil
}

// LatestTrailingPeriod returns the most recent trailing period, if any.
func (b *TimeSeriesBundle) LatestTrailingPeriod() (schema.PeriodKey, bool) {
	if len(b.Trailing) == 0 {
		return schema.PeriodKey{}, false
	}
	return b.Trailing[0].Period, true
}

// Loader populates per-entity bundles with exactly one bulk read per record
// kind, never one query per entity. This is what keeps metric computation
// tractable at thousands of entities.
type Loader struct {
	tsRepo *repository.TimeSeriesRepository
}

// NewLoader creates a new Loader.
func NewLoader(tsRepo *repository.TimeSeriesRepository) *Loader {
	return &Loader{tsRepo: tsRepo}
}

// Load bulk-reads all five record kinds for the entity set and groups them
// by entity. Every requested entity gets a bundle, possibly empty.
func (l *Loader) Load(ctx context.Context, entityIDs []int64) (map[int64]*TimeSeriesBundle, error) {
	bundles := make(map[int64]*TimeSeriesBundle, len(entityIDs))
	for _, id := range entityIDs {
		bundles[id] = &TimeSeriesBundle{}
	}
	bundleFor := func(entityID int64) *TimeSeriesBundle {
		b, ok := bundles[entityID]
		if !ok {
			b = &TimeSeriesBundle{}
			bundles[entityID] = b
		}
		return b
	}

	valuations, err := l.tsRepo.GetValuations(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load valuations: %w", err)
	}
	for _, rec := range valuations {
		b := bundleFor(rec.EntityID)
		b.Valuations = append(b.Valuations, rec)
	}

	trailing, err := l.tsRepo.GetTrailing(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load trailing records: %w", err)
	}
	for _, rec := range trailing {
		b := bundleFor(rec.EntityID)
		b.Trailing = append(b.Trailing, rec)
	}

	quarterly, err := l.tsRepo.GetQuarterly(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load quarterly records: %w", err)
	}
	for _, rec := range quarterly {
		b := bundleFor(rec.EntityID)
		b.Quarterly = append(b.Quarterly, rec)
	}

	annual, err := l.tsRepo.GetAnnualRatios(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load annual ratios: %w", err)
	}
	for _, rec := range annual {
		b := bundleFor(rec.EntityID)
		b.Annual = append(b.Annual, rec)
	}

	prices, err := l.tsRepo.GetPrices(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	for _, rec := range prices {
		b := bundleFor(rec.EntityID)
		b.Prices = append(b.Prices, rec)
	}

	return bundles, nil
}
