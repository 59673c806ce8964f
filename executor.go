package cari

import "sync"

// serialQueue runs functions one at a time in the order they were enqueued.
// A drain goroutine exists only while work is pending, so an idle queue costs
// nothing and needs no Close.
type serialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

func newSerialQueue() *serialQueue {
	return &serialQueue{}
}

func (q *serialQueue) enqueue(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	go q.drain()
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}
