package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/epeers/fundsheet/internal/cache"
	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/epeers/fundsheet/internal/schema"
	log "github.com/sirupsen/logrus"
)

// ExportService re-projects stored data into the columnar layout. Column
// positions come from the live period registry on every call — a new period
// in any category shifts every later block, so positions are never cached
// across ingestion/export cycles.
type ExportService struct {
	entityRepo *repository.EntityRepository
	tsRepo     *repository.TimeSeriesRepository
	loader     *cache.Loader
}

// NewExportService creates a new ExportService.
func NewExportService(
	entityRepo *repository.EntityRepository,
	tsRepo *repository.TimeSeriesRepository,
	loader *cache.Loader,
) *ExportService {
	return &ExportService{entityRepo: entityRepo, tsRepo: tsRepo, loader: loader}
}

// BuildRegistry reconstructs the period registry from the distinct periods
// stored per record kind. Every category sharing a kind gets that kind's
// full period set.
func (s *ExportService) BuildRegistry(ctx context.Context) (*schema.PeriodRegistry, error) {
	registry := schema.NewPeriodRegistry()
	for _, kind := range models.AllRecordKinds {
		periods, err := s.tsRepo.DistinctPeriods(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load distinct periods for %s: %w", kind, err)
		}
		for _, cat := range models.CategoriesForKind(kind) {
			registry.Add(cat, periods...)
		}
	}
	return registry, nil
}

// ExportCSV writes the header rows plus one row per entity.
func (s *ExportService) ExportCSV(ctx context.Context, w io.Writer) error {
	registry, err := s.BuildRegistry(ctx)
	if err != nil {
		return err
	}
	layout := schema.Project(registry, schema.CanonicalOrder)

	entities, err := s.entityRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	entityIDs := make([]int64, len(entities))
	for i, e := range entities {
		entityIDs[i] = e.ID
	}
	bundles, err := s.loader.Load(ctx, entityIDs)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	for _, row := range layout.HeaderRows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write header row: %w", err)
		}
	}
	for _, e := range entities {
		if err := writer.Write(renderEntityRow(layout, e, bundles[e.ID])); err != nil {
			return fmt.Errorf("failed to write row for entity %s: %w", e.Code, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}

	log.Infof("exported %d entities across %d columns", len(entities), layout.Width)
	return nil
}

func renderEntityRow(layout schema.BlockLayout, e models.Entity, bundle *cache.TimeSeriesBundle) []string {
	row := make([]string, layout.Width)
	for _, block := range layout.Blocks {
		switch block.Category {
		case schema.CategoryIdentity:
			row[block.Start] = e.Name
			row[block.Start+1] = e.Code
		case schema.CategoryIdentifiers:
			row[block.Start] = e.ISIN
			row[block.Start+1] = e.BSECode
			row[block.Start+2] = e.NSECode
		default:
			for i, period := range block.Periods {
				if value, ok := valueFor(bundle, block.Category, period); ok {
					row[block.Start+i] = strconv.FormatFloat(value, 'f', -1, 64)
				}
			}
		}
	}
	return row
}

// valueFor finds the stored value of one category at one exact period.
func valueFor(bundle *cache.TimeSeriesBundle, cat schema.Category, period schema.PeriodKey) (float64, bool) {
	if bundle == nil {
		return 0, false
	}
	switch cat {
	case schema.CategoryValuation, schema.CategoryValuationFF:
		for _, rec := range bundle.Valuations {
			if rec.Period == period {
				if cat == schema.CategoryValuation {
					return rec.MarketCap, true
				}
				return rec.MarketCapFF, true
			}
		}

	case schema.CategoryTrailingRevenue, schema.CategoryTrailingRevenueFF,
		schema.CategoryTrailingProfit, schema.CategoryTrailingProfitFF:
		for _, rec := range bundle.Trailing {
			if rec.Period == period {
				switch cat {
				case schema.CategoryTrailingRevenue:
					return rec.Revenue, true
				case schema.CategoryTrailingRevenueFF:
					return rec.RevenueFF, true
				case schema.CategoryTrailingProfit:
					return rec.Profit, true
				default:
					return rec.ProfitFF, true
				}
			}
		}

	case schema.CategoryQuarterlyRevenue, schema.CategoryQuarterlyRevenueFF,
		schema.CategoryQuarterlyProfit, schema.CategoryQuarterlyProfitFF:
		for _, rec := range bundle.Quarterly {
			if rec.Period == period {
				switch cat {
				case schema.CategoryQuarterlyRevenue:
					return rec.Revenue, true
				case schema.CategoryQuarterlyRevenueFF:
					return rec.RevenueFF, true
				case schema.CategoryQuarterlyProfit:
					return rec.Profit, true
				default:
					return rec.ProfitFF, true
				}
			}
		}

	case schema.CategoryReturnOnCapital, schema.CategoryReturnOnEquity, schema.CategoryRetention:
		for _, rec := range bundle.Annual {
			if rec.Period == period {
				switch cat {
				case schema.CategoryReturnOnCapital:
					return rec.ReturnOnCapital, true
				case schema.CategoryReturnOnEquity:
					return rec.ReturnOnEquity, true
				default:
					return rec.Retention, true
				}
			}
		}

	case schema.CategorySharePrice, schema.CategoryPriceToRevenue, schema.CategoryPriceToEarnings:
		for _, rec := range bundle.Prices {
			if rec.Period == period {
				switch cat {
				case schema.CategorySharePrice:
					return rec.Price, true
				case schema.CategoryPriceToRevenue:
					return rec.PriceToRevenue, true
				default:
					return rec.PriceToEarnings, true
				}
			}
		}
	}
	return 0, false
}
