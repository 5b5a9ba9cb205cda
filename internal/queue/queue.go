package queue

import (
	"sync"
)

// Queue is a FIFO of pending items that is consumed all at once.
type Queue[T any] struct {
	mu sync.Mutex
	ts []T
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Add(e T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ts = append(q.ts, e)
}

// Drain returns every queued item in enqueue order and empties the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	es := q.ts
	q.ts = nil
	q.mu.Unlock()
	return es
}
