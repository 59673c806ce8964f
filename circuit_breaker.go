package cari

import (
	"sync/atomic"
	"time"
)

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}

	return &CircuitBreaker{
		config: config,
		state:  int64(StateClosed),
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(atomic.LoadInt64(&cb.state))
}

// Allow checks if the request should be allowed through the circuit breaker
func (cb *CircuitBreaker) Allow() bool {
	now := time.Now().UnixNano()

	switch cb.State() {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		lastFailure := atomic.LoadInt64(&cb.lastFailure)
		if now-lastFailure >= int64(cb.config.RecoveryTimeout) {
			if atomic.CompareAndSwapInt64(&cb.state, int64(StateOpen), int64(StateHalfOpen)) {
				atomic.StoreInt64(&cb.successes, 0)
			}
			return true
		}
		return false
	default:
		return false
	}
}

// RecordFailure records a failure in the circuit breaker
func (cb *CircuitBreaker) RecordFailure() {
	atomic.StoreInt64(&cb.lastFailure, time.Now().UnixNano())

	switch cb.State() {
	case StateClosed:
		failures := atomic.AddInt64(&cb.failures, 1)
		if failures >= int64(cb.config.FailureThreshold) {
			atomic.StoreInt64(&cb.state, int64(StateOpen))
		}
	case StateHalfOpen:
		// one failed probe reopens the circuit
		atomic.AddInt64(&cb.failures, 1)
		atomic.StoreInt64(&cb.state, int64(StateOpen))
		atomic.StoreInt64(&cb.successes, 0)
	}
}

// RecordSuccess records a success in the circuit breaker
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.State() {
	case StateClosed:
		atomic.StoreInt64(&cb.failures, 0)
	case StateHalfOpen:
		successes := atomic.AddInt64(&cb.successes, 1)
		if successes >= int64(cb.config.SuccessThreshold) {
			atomic.StoreInt64(&cb.state, int64(StateClosed))
			atomic.StoreInt64(&cb.failures, 0)
			atomic.StoreInt64(&cb.successes, 0)
		}
	}
}

func newBreakerSet(config CircuitBreakerConfig) *breakerSet {
	return &breakerSet{config: config, breakers: make(map[string]*CircuitBreaker)}
}

func (bs *breakerSet) get(host string) *CircuitBreaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	cb, ok := bs.breakers[host]
	if !ok {
		cb = NewCircuitBreaker(bs.config)
		bs.breakers[host] = cb
	}
	return cb
}

// order drops hosts whose circuit is open, keeping the configured order. When
// every host is open the full list is returned: trying a sick host beats
// failing without an attempt.
func (bs *breakerSet) order(hosts []string) []string {
	if bs == nil {
		return hosts
	}
	allowed := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if bs.get(h).Allow() {
			allowed = append(allowed, h)
		}
	}
	if len(allowed) == 0 {
		return hosts
	}
	return allowed
}

func (bs *breakerSet) record(host string, err error) CircuitState {
	if bs == nil {
		return StateClosed
	}
	cb := bs.get(host)
	if IsRetryable(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return cb.State()
}
