package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

func countingTasks(n int, calls *[]int, fail map[int]error) []BatchTask[int] {
	tasks := make([]BatchTask[int], 0, n)
	for i := 1; i <= n; i++ {
		i := i
		tasks = append(tasks, BatchTask[int]{
			Name: fmt.Sprintf("task-%d", i),
			Run: func(context.Context) (int, error) {
				*calls = append(*calls, i)
				if err, ok := fail[i]; ok {
					return 0, err
				}
				return i, nil
			},
		})
	}
	return tasks
}

func TestRunBatch_HonorsMaxItems(t *testing.T) {
	var calls []int
	tasks := countingTasks(10, &calls, nil)

	results, state := RunBatch(t.Context(), logging.NewNop(), tasks, BatchLimits{MaxItems: 5})

	if len(calls) != 5 {
		t.Fatalf("expected exactly 5 calls, got %d", len(calls))
	}
	if len(results) != 5 || state.CallsMade != 5 {
		t.Fatalf("unexpected results=%d calls_made=%d", len(results), state.CallsMade)
	}
	if state.Stopped {
		t.Fatal("hitting MaxItems is not a rate-limit stop")
	}
}

func TestRunBatch_RateLimitAbortsAndKeepsPartials(t *testing.T) {
	var calls []int
	tasks := countingTasks(10, &calls, map[int]error{3: broadcast.ErrUpstreamRateLimited})

	results, state := RunBatch(t.Context(), logging.NewNop(), tasks, BatchLimits{MaxItems: 10})

	if len(calls) != 3 {
		t.Fatalf("items after the rate-limit signal must never run, got calls %v", calls)
	}
	if !state.Stopped {
		t.Fatal("state.Stopped should be set")
	}
	if len(results) != 2 || results[0] != 1 || results[1] != 2 {
		t.Fatalf("partial results must be retained, got %v", results)
	}
}

func TestRunBatch_OtherFailuresAreSkipped(t *testing.T) {
	var calls []int
	tasks := countingTasks(4, &calls, map[int]error{2: fmt.Errorf("boom")})

	results, state := RunBatch(t.Context(), logging.NewNop(), tasks, BatchLimits{MaxItems: 10})

	if len(calls) != 4 {
		t.Fatalf("non-rate-limit failures must not stop the batch, got calls %v", calls)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %v", results)
	}
	if state.Stopped {
		t.Fatal("ordinary failure must not mark the batch stopped")
	}
}

func TestRunBatch_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	var calls []int
	tasks := countingTasks(5, &calls, nil)
	tasks[0].Run = func(context.Context) (int, error) {
		calls = append(calls, 1)
		cancel()
		return 1, nil
	}

	results, _ := RunBatch(ctx, logging.NewNop(), tasks, BatchLimits{MaxItems: 5})

	if len(calls) != 1 {
		t.Fatalf("cancelled batch must stop, got calls %v", calls)
	}
	if len(results) != 1 {
		t.Fatalf("completed work before cancel is kept, got %v", results)
	}
}
