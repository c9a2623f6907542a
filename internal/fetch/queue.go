package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Queue admits at most a fixed number of concurrent tasks and spaces
// their dispatches by a minimum interval.
type Queue struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	stopCtx  context.Context //nolint:containedctx // lifetime signal of the queue itself
	stopOnce sync.Once
	stop     context.CancelFunc
}

// NewQueue creates a Queue. concurrency below 1 is treated as 1 and an
// interval of zero or less disables spacing.
func NewQueue(concurrency int, interval time.Duration) *Queue {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	stopCtx, stop := context.WithCancel(context.Background())

	return &Queue{
		sem:     semaphore.NewWeighted(int64(max(concurrency, 1))),
		limiter: rate.NewLimiter(limit, 1),
		stopCtx: stopCtx,
		stop:    stop,
	}
}

// Do waits for a free slot and the next dispatch time, then runs fn with ctx.
// The slot is held until fn returns. Tasks still waiting when ctx is
// cancelled return ctx.Err(); tasks waiting when the queue is stopped
// return ErrQueueStopped without running.
func (q *Queue) Do(ctx context.Context, fn func(context.Context) error) error {
	if q.stopCtx.Err() != nil {
		return ErrQueueStopped
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	unwatch := context.AfterFunc(q.stopCtx, cancel)
	defer unwatch()

	if err := q.sem.Acquire(waitCtx, 1); err != nil {
		return q.waitErr(ctx, err)
	}
	defer q.sem.Release(1)

	if err := q.limiter.Wait(waitCtx); err != nil {
		return q.waitErr(ctx, err)
	}
	if q.stopCtx.Err() != nil {
		return ErrQueueStopped
	}
	return fn(ctx)
}

func (q *Queue) waitErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if q.stopCtx.Err() != nil {
		return ErrQueueStopped
	}
	return err
}

// Stop drops all waiting tasks and rejects new ones. Running tasks finish.
func (q *Queue) Stop() {
	q.stopOnce.Do(q.stop)
}
