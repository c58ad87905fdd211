package pipe

import (
	"sync"
)

// Queue is a FIFO of pending requests, shared between producers and the
// pipe's queue processor. Producers push; only the processor pops.
type Queue struct {
	mu    sync.Mutex
	items []*Request
}

// NewQueue creates an empty request queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a request to the back of the queue.
func (q *Queue) Push(req *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
}

// TryPop removes and returns the oldest request, or nil if the queue
// is empty. It never blocks.
func (q *Queue) TryPop() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	req := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return req
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns all queued requests in FIFO order.
func (q *Queue) Drain() []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
