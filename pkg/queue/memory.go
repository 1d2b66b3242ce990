package queue

import "sync"

// InMemoryQueue implements a bounded in-memory queue.
// Enqueue never blocks: when the queue is full the item is dropped
// and Enqueue returns false, so a stalled consumer cannot wedge
// the connection read loops feeding it.
type InMemoryQueue struct {
	ch   chan interface{}
	lock sync.Mutex
}

// NewInMemoryQueue creates a new queue holding at most size items.
func NewInMemoryQueue(size int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, size),
	}
}

// Enqueue adds an item to the end of the queue.
func (q *InMemoryQueue) Enqueue(item interface{}) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	select {
	case q.ch <- item:
		return true
	default:
		return false
	}
}

// ReadAllMessages drains and returns all pending items in arrival order.
func (q *InMemoryQueue) ReadAllMessages() []interface{} {
	q.lock.Lock()
	defer q.lock.Unlock()

	var items []interface{}
	for len(q.ch) > 0 {
		items = append(items, <-q.ch)
	}
	return items
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.ch)
}

// Clear discards all pending items.
func (q *InMemoryQueue) Clear() {
	q.lock.Lock()
	defer q.lock.Unlock()
	for len(q.ch) > 0 {
		<-q.ch
	}
}
