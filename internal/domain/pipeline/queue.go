package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"presentation-server/internal/domain/slideimage"
	"presentation-server/internal/infrastructure/metrics"
)

// DispatchFunc is invoked for each queue item once its delay has elapsed.
// The callee owns re-verification: a dispatched item may no longer be wanted.
type DispatchFunc func(ctx context.Context, item slideimage.QueueItem)

type queuedItem struct {
	item       slideimage.QueueItem
	enqueuedAt time.Time
}

// Queue is the rate-staggering generation queue. Items are dispatched in
// FIFO order, each after its own delay, by a single drain goroutine. A
// re-entrancy guard ensures only one drain loop runs at a time; a failed
// dispatch never blocks the items behind it.
type Queue struct {
	mu       sync.Mutex
	items    []queuedItem
	draining bool
	dispatch DispatchFunc
	log      zerolog.Logger
}

func NewQueue(dispatch DispatchFunc, log zerolog.Logger) *Queue {
	return &Queue{
		dispatch: dispatch,
		log:      log.With().Str("component", "generation-queue").Logger(),
	}
}

// Enqueue appends items and starts the drain loop unless one is active.
func (q *Queue) Enqueue(ctx context.Context, items ...slideimage.QueueItem) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()
	now := time.Now()
	for _, item := range items {
		q.items = append(q.items, queuedItem{item: item, enqueuedAt: now})
	}
	depth := len(q.items)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	q.log.Debug().Int("enqueued", len(items)).Int("depth", depth).Msg("items queued")

	if start {
		go q.drain(ctx)
	}
}

// Depth returns the number of items currently waiting.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Reset drops all pending items; used on session change. An active drain
// loop winds down on its own once the list is empty.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
	metrics.QueueDepth.Set(0)
}

func (q *Queue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()
			metrics.QueueDepth.Set(0)
			return
		}
		head := q.items[0]
		q.items = q.items[1:]
		depth := len(q.items)
		q.mu.Unlock()

		metrics.QueueDepth.Set(float64(depth))

		if head.item.Delay > 0 {
			timer := time.NewTimer(head.item.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				q.mu.Lock()
				q.draining = false
				q.mu.Unlock()
				return
			case <-timer.C:
			}
		}

		metrics.QueueWaitDuration.Observe(time.Since(head.enqueuedAt).Seconds())
		q.dispatch(ctx, head.item)
	}
}
