package cari

import (
	"context"
	"fmt"
	"sync"
)

// IteratorState is the lifecycle state of a BrowseIterator.
type IteratorState int

const (
	NotStarted IteratorState = iota
	Running
	Exhausted
	Errored
	Cancelled
)

func (s IteratorState) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Exhausted:
		return "exhausted"
	case Errored:
		return "errored"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("IteratorState(%d)", int(s))
	}
}

// Terminal reports whether s is absorbing.
func (s IteratorState) Terminal() bool {
	return s == Exhausted || s == Errored || s == Cancelled
}

// BrowseIterator walks every page of a browse, requesting the next page as
// soon as the handler has returned for the previous one. At most one page
// request is outstanding at any time. The handler receives every page, or the
// error that ended the walk; cancellation is the only way to stop early.
type BrowseIterator struct {
	index   *Index
	query   Query
	handler Handler
	ctx     context.Context

	mu        sync.Mutex
	state     IteratorState
	cancelled bool
	received  bool
	cursor    string
	pages     int
	current   *Call
	// stopWatch unregisters the ctx watcher; set by Start
	stopWatch func() bool

	finishOnce sync.Once
	done       chan struct{}
}

// NewBrowseIterator prepares a browse over q. Nothing is sent before Start.
// Cancelling ctx cancels the iterator.
func (i *Index) NewBrowseIterator(ctx context.Context, q Query, handler Handler) *BrowseIterator {
	return &BrowseIterator{
		index:   i,
		query:   q,
		handler: handler,
		ctx:     ctx,
		done:    make(chan struct{}),
	}
}

// Start issues the first page request. It fails if called more than once.
func (it *BrowseIterator) Start() error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.state != NotStarted {
		return ErrIteratorStarted
	}
	it.state = Running
	// dispatching under the lock orders the assignment of current before the
	// page handler, which needs the lock too
	it.current = it.index.Browse(it.ctx, it.query, it.onPage)
	it.stopWatch = context.AfterFunc(it.ctx, func() { _ = it.Cancel() })
	return nil
}

// Cancel stops the iteration: the in-flight request is cancelled, its
// response is discarded and no further request is sent. Cancelling an
// iterator that already reached a terminal state only sets the flag.
func (it *BrowseIterator) Cancel() error {
	it.mu.Lock()
	if it.state == NotStarted {
		it.mu.Unlock()
		return ErrIteratorNotStarted
	}
	it.cancelled = true
	call := it.current
	it.current = nil
	transitioned := it.state == Running
	if transitioned {
		it.state = Cancelled
	}
	it.mu.Unlock()

	if call != nil {
		call.Cancel()
	}
	if transitioned {
		it.finish()
	}
	return nil
}

// HasNext reports whether the last processed page carried a cursor.
func (it *BrowseIterator) HasNext() (bool, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.state == NotStarted {
		return false, ErrIteratorNotStarted
	}
	if !it.received {
		return false, ErrNoPageYet
	}
	return it.cursor != "", nil
}

// State returns the current state.
func (it *BrowseIterator) State() IteratorState {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.state
}

// Cursor returns the cursor of the last processed page.
func (it *BrowseIterator) Cursor() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor
}

// Pages returns how many pages were handed to the handler.
func (it *BrowseIterator) Pages() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.pages
}

// Done is closed when the iterator reaches a terminal state, after the
// handler returned for the final page or error.
func (it *BrowseIterator) Done() <-chan struct{} {
	return it.done
}

// finish runs once the state is terminal, with or without it.mu held.
func (it *BrowseIterator) finish() {
	it.finishOnce.Do(func() {
		if it.stopWatch != nil {
			it.stopWatch()
		}
		close(it.done)
	})
}

// onPage runs on the client's delivery queue.
func (it *BrowseIterator) onPage(page Record, err error) {
	it.mu.Lock()
	if it.cancelled || it.state != Running {
		// late response: no state change at all
		it.mu.Unlock()
		return
	}
	it.current = nil

	if err != nil {
		it.state = Errored
		it.mu.Unlock()

		it.logPage("Browse failed", "error", err)
		it.deliver(nil, err)
		it.finish()
		return
	}

	cursor := PageCursor(page)
	it.cursor = cursor
	it.received = true
	it.pages++
	if cursor == "" {
		it.state = Exhausted
	}
	it.mu.Unlock()

	it.index.client.metrics.RecordBrowsePage(it.index.name)
	it.logPage("Browse page", "hasNext", cursor != "")
	it.deliver(page, nil)

	it.mu.Lock()
	defer it.mu.Unlock()
	switch {
	case it.state == Exhausted:
		it.finish()
	case it.cancelled:
		// Cancel already moved the state and closed done
	default:
		it.current = it.index.BrowseFrom(it.ctx, it.query, cursor, it.onPage)
	}
}

func (it *BrowseIterator) deliver(page Record, err error) {
	if it.handler != nil {
		it.handler(page, err)
	}
}

func (it *BrowseIterator) logPage(msg string, args ...any) {
	c := it.index.client
	if c.debugOn(c.debug.LogBrowse) {
		c.logger.Debug(msg, append([]any{"index", it.index.name, "page", it.Pages()}, args...)...)
	}
}
