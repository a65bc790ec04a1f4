package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

// BatchLimits bounds one batch run: at most MaxItems tasks with Delay
// between consecutive tasks.
type BatchLimits struct {
	MaxItems int
	Delay    time.Duration
}

// BatchState is the per-run rate-limit bookkeeping. Stopped is terminal for
// the batch it belongs to and for nothing else.
type BatchState struct {
	CallsMade int
	Stopped   bool
}

// BatchTask is one unit of work in a bounded batch.
type BatchTask[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// RunBatch processes tasks in order under the given limits. A task failing
// with broadcast.ErrUpstreamRateLimited stops the whole batch immediately;
// results already collected are kept. Any other task failure is logged and
// skipped. The inter-task delay is the politeness floor for feeds that ban
// aggressive polling.
func RunBatch[T any](ctx context.Context, logger *logging.Logger, tasks []BatchTask[T], limits BatchLimits) ([]T, BatchState) {
	if logger == nil {
		logger = logging.Default()
	}

	state := BatchState{}
	results := make([]T, 0, len(tasks))

	for i, task := range tasks {
		if limits.MaxItems > 0 && state.CallsMade >= limits.MaxItems {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if i > 0 && limits.Delay > 0 {
			timer := time.NewTimer(limits.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, state
			case <-timer.C:
			}
		}

		result, err := task.Run(ctx)
		state.CallsMade++
		if err != nil {
			if errors.Is(err, broadcast.ErrUpstreamRateLimited) {
				state.Stopped = true
				logger.WarnContext(ctx, "batch stopped: upstream rate limited",
					"task", task.Name,
					"calls_made", state.CallsMade,
				)
				break
			}
			logger.WarnContext(ctx, "batch task failed, skipping",
				"task", task.Name,
				"error", err,
			)
			continue
		}

		results = append(results, result)
	}

	return results, state
}
