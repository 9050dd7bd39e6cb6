package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/epeers/fundsheet/internal/schema"
	log "github.com/sirupsen/logrus"
)

// IngestService turns one uploaded sheet into stored time-series records:
// classify the header rows, feed newly discovered periods into the registry,
// then upsert one record per (entity, kind, period) touched by the sheet.
//
// Classification failures abort before any storage mutation; no partial
// schema is ever committed.
type IngestService struct {
	entityRepo *repository.EntityRepository
	tsRepo     *repository.TimeSeriesRepository
	registry   *schema.PeriodRegistry
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	entityRepo *repository.EntityRepository,
	tsRepo *repository.TimeSeriesRepository,
	registry *schema.PeriodRegistry,
) *IngestService {
	return &IngestService{entityRepo: entityRepo, tsRepo: tsRepo, registry: registry}
}

// IngestCSV ingests one uploaded CSV table.
func (s *IngestService) IngestCSV(ctx context.Context, r io.Reader) (*models.IngestResponse, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var headerRows [][]string
	if len(rows) > schema.HeaderRowCount {
		headerRows = rows[:schema.HeaderRowCount]
	} else {
		headerRows = rows
	}

	cls, err := schema.Classify(headerRows)
	if err != nil {
		return nil, err
	}

	resp := &models.IngestResponse{}
	for _, cc := range cls.Columns {
		switch {
		case cc.HasPeriod, cc.Category == schema.CategoryIdentity, cc.Category == schema.CategoryIdentifiers:
			resp.ColumnsMapped++
		case cc.Separator:
			// separators are neither mapped nor skipped
		default:
			resp.ColumnsSkipped++
		}
	}

	resp.PeriodsDiscovered = s.registry.AddDiscovered(cls.DiscoveredPeriods())

	identifierCols := cls.IdentifierColumns()
	for _, row := range rows[min(len(rows), schema.HeaderRowCount):] {
		ingested, err := s.ingestRow(ctx, cls, identifierCols, row)
		if err != nil {
			return resp, err
		}
		if ingested {
			resp.RowsIngested++
			resp.EntitiesUpserted++
		}
	}

	log.Infof("ingest done: %d rows, %d columns mapped, %d skipped, %d new periods",
		resp.RowsIngested, resp.ColumnsMapped, resp.ColumnsSkipped, resp.PeriodsDiscovered)
	return resp, nil
}

func (s *IngestService) ingestRow(ctx context.Context, cls *schema.Classification, identifierCols []int, row []string) (bool, error) {
	cell := func(col int) string {
		if col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	entity := models.Entity{Name: cell(0), Code: cell(1)}
	if entity.Code == "" {
		return false, nil
	}
	for i, col := range identifierCols {
		switch i {
		case 0:
			entity.ISIN = cell(col)
		case 1:
			entity.BSECode = cell(col)
		case 2:
			entity.NSECode = cell(col)
		}
	}

	if err := s.entityRepo.Upsert(ctx, &entity); err != nil {
		return false, err
	}

	acc := newRecordAccumulator(entity.ID)
	for _, cc := range cls.Columns {
		if !cc.HasPeriod {
			continue
		}
		raw := cell(cc.Column)
		if raw == "" {
			continue
		}
		value, err := parseNumeric(raw)
		if err != nil {
			log.Debugf("entity %s column %d: skipping non-numeric cell %q", entity.Code, cc.Column, raw)
			continue
		}
		acc.set(cc.Category, cc.Period, value)
	}

	if err := acc.flush(ctx, s.tsRepo); err != nil {
		return false, fmt.Errorf("failed to store records for entity %s: %w", entity.Code, err)
	}
	return true, nil
}

func parseNumeric(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// recordAccumulator collects one row's cells into whole per-period records
// before writing, so sibling categories of one kind (revenue and its free
// float, say) land in a single upsert.
type recordAccumulator struct {
	entityID   int64
	valuations map[schema.PeriodKey]*models.ValuationRecord
	trailing   map[schema.PeriodKey]*models.TrailingRecord
	quarterly  map[schema.PeriodKey]*models.QuarterlyRecord
	annual     map[schema.PeriodKey]*models.AnnualRatioRecord
	prices     map[schema.PeriodKey]*models.PriceRecord
}

func newRecordAccumulator(entityID int64) *recordAccumulator {
	return &recordAccumulator{
		entityID:   entityID,
		valuations: make(map[schema.PeriodKey]*models.ValuationRecord),
		trailing:   make(map[schema.PeriodKey]*models.TrailingRecord),
		quarterly:  make(map[schema.PeriodKey]*models.QuarterlyRecord),
		annual:     make(map[schema.PeriodKey]*models.AnnualRatioRecord),
		prices:     make(map[schema.PeriodKey]*models.PriceRecord),
	}
}

func (a *recordAccumulator) set(cat schema.Category, period schema.PeriodKey, value float64) {
	switch cat {
	case schema.CategoryValuation, schema.CategoryValuationFF:
		rec := a.valuations[period]
		if rec == nil {
			rec = &models.ValuationRecord{EntityID: a.entityID, Period: period}
			a.valuations[period] = rec
		}
		if cat == schema.CategoryValuation {
			rec.MarketCap = value
		} else {
			rec.MarketCapFF = value
		}

	case schema.CategoryTrailingRevenue, schema.CategoryTrailingRevenueFF,
		schema.CategoryTrailingProfit, schema.CategoryTrailingProfitFF:
		rec := a.trailing[period]
		if rec == nil {
			rec = &models.TrailingRecord{EntityID: a.entityID, Period: period}
			a.trailing[period] = rec
		}
		switch cat {
		case schema.CategoryTrailingRevenue:
			rec.Revenue = value
		case schema.CategoryTrailingRevenueFF:
			rec.RevenueFF = value
		case schema.CategoryTrailingProfit:
			rec.Profit = value
		case schema.CategoryTrailingProfitFF:
			rec.ProfitFF = value
		}

	case schema.CategoryQuarterlyRevenue, schema.CategoryQuarterlyRevenueFF,
		schema.CategoryQuarterlyProfit, schema.CategoryQuarterlyProfitFF:
		rec := a.quarterly[period]
		if rec == nil {
			rec = &models.QuarterlyRecord{EntityID: a.entityID, Period: period}
			a.quarterly[period] = rec
		}
		switch cat {
		case schema.CategoryQuarterlyRevenue:
			rec.Revenue = value
		case schema.CategoryQuarterlyRevenueFF:
			rec.RevenueFF = value
		case schema.CategoryQuarterlyProfit:
			rec.Profit = value
		case schema.CategoryQuarterlyProfitFF:
			rec.ProfitFF = value
		}

	case schema.CategoryReturnOnCapital, schema.CategoryReturnOnEquity, schema.CategoryRetention:
		rec := a.annual[period]
		if rec == nil {
			rec = &models.AnnualRatioRecord{EntityID: a.entityID, Period: period}
			a.annual[period] = rec
		}
		switch cat {
		case schema.CategoryReturnOnCapital:
			rec.ReturnOnCapital = value
		case schema.CategoryReturnOnEquity:
			rec.ReturnOnEquity = value
		case schema.CategoryRetention:
			rec.Retention = value
		}

	case schema.CategorySharePrice, schema.CategoryPriceToRevenue, schema.CategoryPriceToEarnings:
		rec := a.prices[period]
		if rec == nil {
			rec = &models.PriceRecord{EntityID: a.entityID, Period: period}
			a.prices[period] = rec
		}
		switch cat {
		case schema.CategorySharePrice:
			rec.Price = value
		case schema.CategoryPriceToRevenue:
			rec.PriceToRevenue = value
		case schema.CategoryPriceToEarnings:
			rec.PriceToEarnings = value
		}
	}
}

func (a *recordAccumulator) flush(ctx context.Context, tsRepo *repository.TimeSeriesRepository) error {
	for _, rec := range a.valuations {
		if err := tsRepo.UpsertValuation(ctx, *rec); err != nil {
			return err
		}
	}
	for _, rec := range a.trailing {
		if err := tsRepo.UpsertTrailing(ctx, *rec); err != nil {
			return err
		}
	}
	for _, rec := range a.quarterly {
		if err := tsRepo.UpsertQuarterly(ctx, *rec); err != nil {
			return err
		}
	}
	for _, rec := range a.annual {
		if err := tsRepo.UpsertAnnualRatio(ctx, *rec); err != nil {
			return err
		}
	}
	for _, rec := range a.prices {
		if err := tsRepo.UpsertPrice(ctx, *rec); err != nil {
			return err
		}
	}
	return nil
}
