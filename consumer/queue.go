package consumer

import (
	"context"
	"sync"

	"github.com/paust-team/zkwatch/operation"
)

// operationQueue is an unbounded FIFO with a blocking take.
type operationQueue struct {
	mu     sync.Mutex
	items  []*operation.Operation
	signal chan struct{}
}

func newOperationQueue() *operationQueue {
	return &operationQueue{signal: make(chan struct{}, 1)}
}

func (q *operationQueue) push(ops ...*operation.Operation) {
	q.mu.Lock()
	q.items = append(q.items, ops...)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// take removes the head of the queue, blocking while the queue is empty.
func (q *operationQueue) take(ctx context.Context) (*operation.Operation, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			op := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return op, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
		}
	}
}

// drain discards every queued operation and returns how many were dropped.
func (q *operationQueue) drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}
