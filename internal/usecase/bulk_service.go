package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

const (
	defaultBulkWorkers = 4
	maxBulkWorkers     = 16
	maxBulkRequests    = 50
)

// BulkService answers several independent fixture lookups concurrently.
// Each lookup is a full Aggregate call; the cache is the only state they
// share, so fan-out needs no coordination beyond the worker pool.
type BulkService struct {
	aggregator *AggregateService
	maxWorkers int
	logger     *logging.Logger
}

func NewBulkService(aggregator *AggregateService, maxWorkers int, logger *logging.Logger) *BulkService {
	if maxWorkers <= 0 {
		maxWorkers = defaultBulkWorkers
	}
	if maxWorkers > maxBulkWorkers {
		maxWorkers = maxBulkWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &BulkService{
		aggregator: aggregator,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// BulkResult pairs one requested match with its aggregation outcome.
type BulkResult struct {
	Request broadcast.RequestedMatch
	Record  broadcast.FixtureRecord
	Err     error
}

// AggregateMany fans the requests out over a bounded worker pool and
// returns results in request order.
func (s *BulkService) AggregateMany(ctx context.Context, reqs []broadcast.RequestedMatch, enabled map[string]bool) ([]BulkResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BulkService.AggregateMany")
	defer span.End()

	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: at least one match is required", ErrInvalidInput)
	}
	if len(reqs) > maxBulkRequests {
		return nil, fmt.Errorf("%w: at most %d matches per call", ErrInvalidInput, maxBulkRequests)
	}

	workers := s.maxWorkers
	if workers > len(reqs) {
		workers = len(reqs)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]BulkResult, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			record, aggErr := s.aggregator.Aggregate(ctx, req, enabled)
			results[i] = BulkResult{Request: req, Record: record, Err: aggErr}
		}); err != nil {
			wg.Done()
			results[i] = BulkResult{Request: req, Err: fmt.Errorf("submit lookup: %w", err)}
		}
	}
	wg.Wait()

	return results, nil
}
