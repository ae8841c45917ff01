package orchestrator

import (
	"sync"

	"github.com/sells-group/deep-research/internal/model"
)

// queue is an unbounded, append-only progress queue with many producers
// and a single consumer. Producers never block.
type queue struct {
	mu     sync.Mutex
	items  []model.Update
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(u model.Update) {
	q.mu.Lock()
	q.items = append(q.items, u)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// drain removes and returns every queued update in push order.
func (q *queue) drain() []model.Update {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// ready returns the wake-up channel, or nil for a nil queue so a select
// case on it never fires.
func (q *queue) ready() <-chan struct{} {
	if q == nil {
		return nil
	}
	return q.notify
}
