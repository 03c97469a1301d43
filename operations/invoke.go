package operations

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

// DefaultWorkers is the number of blocking computations an Invoker runs at once by default.
const DefaultWorkers = 4

// Invoker calls registered computations.
//
// Cooperative computations are called directly with the caller's context. Blocking computations
// first acquire a slot of a bounded pool; waiting for a slot honours cancellation, but a blocking
// computation that has started is always awaited. If the context was cancelled meanwhile, its
// result is discarded and the context error is returned.
type Invoker struct {
	sem     *semaphore.Weighted
	workers int64
	lggr    logger.Logger
}

// NewInvoker returns an Invoker that runs at most workers blocking computations concurrently.
// A non-positive workers value falls back to DefaultWorkers.
func NewInvoker(workers int, lggr logger.Logger) *Invoker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if lggr == nil {
		lggr = logger.Nop()
	}

	return &Invoker{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: int64(workers),
		lggr:    lggr,
	}
}

// Workers returns the size of the blocking pool.
func (i *Invoker) Workers() int {
	return int(i.workers)
}

// Invoke calls the computation of entry with wm as its input and returns the raw result.
func (i *Invoker) Invoke(ctx context.Context, entry *Entry, wm *memory.WorkingMemory) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !entry.Signature.Blocking {
		return entry.call(ctx, wm)
	}

	if err := i.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a worker for %s: %w", entry.Name(), err)
	}
	defer i.sem.Release(1)

	i.lggr.Debugw("Invoking blocking computation", "operation", entry.Name())

	result, err := entry.call(ctx, wm)
	if ctxErr := ctx.Err(); ctxErr != nil {
		i.lggr.Debugw("Discarding result of cancelled computation", "operation", entry.Name())

		return nil, ctxErr
	}

	return result, err
}
