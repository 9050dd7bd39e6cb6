package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/epeers/fundsheet/internal/cache"
	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/epeers/fundsheet/internal/schema"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Progress is one observation point of a running batch.
type Progress struct {
	Processed int
	Total     int
	Entity    string
	Status    string
}

// ProgressFunc receives progress updates at per-entity cadence. A batch is
// cancellable between entities and between portfolios, never mid-entity.
type ProgressFunc func(Progress)

// BatchResult summarizes one portfolio computation run.
type BatchResult struct {
	PortfolioID int64
	RunID       string
	Succeeded   int
	Partial     int
	Failed      int
	Aggregate   models.PortfolioAggregate
}

// BatchService runs per-portfolio metric computation: one bundle snapshot,
// entity-parallel pure computation, weighted aggregation, then the single
// write step at the end.
type BatchService struct {
	portfolioRepo *repository.PortfolioRepository
	entityRepo    *repository.EntityRepository
	metricsRepo   *repository.MetricsRepository
	loader        *cache.Loader
	parallelism   int

	// Writes for one portfolio are a single critical section so two
	// overlapping runs for the same portfolio cannot interleave their
	// read-then-split upsert cycles.
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewBatchService creates a new BatchService.
func NewBatchService(
	portfolioRepo *repository.PortfolioRepository,
	entityRepo *repository.EntityRepository,
	metricsRepo *repository.MetricsRepository,
	loader *cache.Loader,
	parallelism int,
) *BatchService {
	if parallelism < 1 {
		parallelism = 1
	}
	return &BatchService{
		portfolioRepo: portfolioRepo,
		entityRepo:    entityRepo,
		metricsRepo:   metricsRepo,
		loader:        loader,
		parallelism:   parallelism,
		locks:         make(map[int64]*sync.Mutex),
	}
}

func (s *BatchService) lockFor(portfolioID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[portfolioID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[portfolioID] = mu
	}
	return mu
}

// ComputePortfolio computes and persists metrics for every holding of one
// portfolio. Per-entity failures never abort the run; they default to the
// all-zero set and are counted in the result.
func (s *BatchService) ComputePortfolio(ctx context.Context, portfolioID int64, progress ProgressFunc) (*BatchResult, error) {
	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	result := &BatchResult{PortfolioID: portfolioID, RunID: uuid.NewString()}

	holdings, err := s.portfolioRepo.GetHoldings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	if len(holdings) == 0 {
		log.Infof("run %s: portfolio %d has no holdings", result.RunID, portfolioID)
		return result, nil
	}

	entityIDs := make([]int64, len(holdings))
	for i, h := range holdings {
		entityIDs[i] = h.EntityID
	}

	entities, err := s.entityRepo.GetByIDs(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	// One point-in-time snapshot for the whole run.
	bundles, err := s.loader.Load(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load time series: %w", err)
	}

	// The run's target period is the latest trailing period seen across
	// the portfolio's holdings; every metric record is keyed by it.
	var targetPeriod schema.PeriodKey
	for _, b := range bundles {
		if p, ok := b.LatestTrailingPeriod(); ok && p.After(targetPeriod) {
			targetPeriod = p
		}
	}
	if targetPeriod.IsZero() {
		log.Warnf("run %s: portfolio %d has no trailing data at all", result.RunID, portfolioID)
	}

	// Entity-parallel compute. Bundles are immutable for the run and
	// ComputeMetrics is pure, so no synchronization beyond the counters.
	results := make([]models.ComputeResult, len(holdings))
	var progressMu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, h := range holdings {
		i, h := i, h
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = computeGuarded(h.EntityID, targetPeriod, bundles[h.EntityID])

			if progress != nil {
				progressMu.Lock()
				processed++
				progress(Progress{
					Processed: processed,
					Total:     len(holdings),
					Entity:    entities[h.EntityID].Name,
					Status:    results[i].Status.String(),
				})
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	weighted := make([]WeightedHolding, len(holdings))
	records := make([]models.MetricRecord, 0, len(holdings))
	for i, h := range holdings {
		r := results[i]
		switch r.Status {
		case models.StatusOK:
			result.Succeeded++
		case models.StatusPartial, models.StatusNoData:
			result.Partial++
		case models.StatusFailed:
			result.Failed++
		}

		weighted[i] = WeightedHolding{
			EntityID:     h.EntityID,
			Name:         entities[h.EntityID].Name,
			MarketValue:  h.MarketValue,
			Metrics:      r.Metrics,
			Fundamentals: r.Fundamentals,
		}
		if !targetPeriod.IsZero() {
			records = append(records, models.MetricRecord{
				PortfolioID: portfolioID,
				EntityID:    h.EntityID,
				Period:      targetPeriod,
				Metrics:     r.Metrics,
			})
		}
	}

	result.Aggregate = AggregateHoldings(weighted)
	result.Aggregate.PortfolioID = portfolioID

	mu := s.lockFor(portfolioID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.metricsRepo.BulkUpsert(ctx, portfolioID, records); err != nil {
		return nil, fmt.Errorf("failed to persist metrics for portfolio %d: %w", portfolioID, err)
	}
	if err := s.metricsRepo.SaveAggregate(ctx, result.Aggregate); err != nil {
		return nil, fmt.Errorf("failed to persist aggregate for portfolio %d: %w", portfolioID, err)
	}

	log.Infof("run %s: portfolio %d done: %d ok, %d partial, %d failed",
		result.RunID, portfolioID, result.Succeeded, result.Partial, result.Failed)
	return result, nil
}

// ComputeAll recomputes every portfolio sequentially. It is cancellable
// between portfolio boundaries; a failing portfolio is logged and the run
// proceeds to the next.
func (s *BatchService) ComputeAll(ctx context.Context, progress ProgressFunc) ([]BatchResult, error) {
	portfolios, err := s.portfolioRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	var out []BatchResult
	for _, p := range portfolios {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		result, err := s.ComputePortfolio(ctx, p.ID, progress)
		if err != nil {
			log.Errorf("portfolio %d (%s): batch failed: %v", p.ID, p.Name, err)
			continue
		}
		out = append(out, *result)
	}
	return out, nil
}

// GetMetrics exposes the persisted per-entity metric records.
func (s *BatchService) GetMetrics(ctx context.Context, portfolioID int64) ([]models.MetricRecord, error) {
	return s.metricsRepo.GetMetrics(ctx, portfolioID)
}

// GetAggregate exposes the latest persisted aggregate.
func (s *BatchService) GetAggregate(ctx context.Context, portfolioID int64) (*models.PortfolioAggregate, error) {
	return s.metricsRepo.GetAggregate(ctx, portfolioID)
}

// computeGuarded isolates one entity's computation: a panic from a malformed
// record must never halt portfolio-wide computation.
func computeGuarded(entityID int64, period schema.PeriodKey, bundle *cache.TimeSeriesBundle) (result models.ComputeResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("entity %d: metric computation panicked: %v", entityID, r)
			result = models.ComputeResult{EntityID: entityID, Status: models.StatusFailed}
		}
	}()
	return ComputeMetrics(entityID, period, bundle)
}
