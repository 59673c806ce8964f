package cari

import (
	"context"
	"sync"
)

type callState int

const (
	callPending callState = iota
	callCompleted
	callCancelled
)

// Call is the handle of one in-flight operation. Its handler runs at most
// once, and never after Cancel returned while the call was still pending.
type Call struct {
	mu      sync.Mutex
	state   callState
	cancel  context.CancelFunc
	handler Handler
	done    chan struct{}
	res     Record
	err     error
}

func newCall(cancel context.CancelFunc, handler Handler) *Call {
	return &Call{
		cancel:  cancel,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Cancel aborts the pending attempt, stops further attempts and suppresses the
// handler. It is a no-op once the call has completed.
func (c *Call) Cancel() {
	c.mu.Lock()
	if c.state == callPending {
		c.state = callCancelled
		c.err = ErrCancelled
		close(c.done)
	}
	c.mu.Unlock()

	// State is recorded before the attempt context is torn down, so a response
	// racing with this call always observes callCancelled.
	c.cancel()
}

// Cancelled reports whether the call was cancelled before it completed.
func (c *Call) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == callCancelled
}

// Done is closed once the call has completed (after its handler returned) or
// was cancelled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call resolves and returns its outcome. A cancelled
// call yields ErrCancelled. Wait must not be called from a Handler of the
// same client: handlers share one delivery queue.
func (c *Call) Wait(ctx context.Context) (Record, error) {
	select {
	case <-c.done:
		return c.res, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve delivers the outcome. It must run on the delivery queue.
func (c *Call) resolve(res Record, err error) bool {
	c.mu.Lock()
	if c.state != callPending {
		c.mu.Unlock()
		return false
	}
	c.state = callCompleted
	c.res, c.err = res, err
	c.mu.Unlock()

	if c.handler != nil {
		c.handler(res, err)
	}
	close(c.done)
	c.cancel()
	return true
}
