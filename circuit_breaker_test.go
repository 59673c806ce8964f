package cari

import (
	"errors"
	"testing"
	"time"
)

func TestNewCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.config.FailureThreshold != 5 {
		t.Errorf("Expected default FailureThreshold=5, got %d", cb.config.FailureThreshold)
	}
	if cb.config.RecoveryTimeout != 60*time.Second {
		t.Errorf("Expected default RecoveryTimeout=60s, got %v", cb.config.RecoveryTimeout)
	}
	if cb.config.SuccessThreshold != 2 {
		t.Errorf("Expected default SuccessThreshold=2, got %d", cb.config.SuccessThreshold)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected initial state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Errorf("Expected state=Closed after 2 failures, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected state=Open after 3 failures, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected false when circuit breaker is open")
	}

	cb.RecordFailure()
	if cb.failures != 3 {
		t.Errorf("Expected failures=3 (unchanged when open), got %d", cb.failures)
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("Expected state=Closed, failures are not consecutive, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
	})

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)

	if !cb.Allow() {
		t.Error("Expected true when transitioning to half-open")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected state=HalfOpen, got %v", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Errorf("Expected state=HalfOpen after 1 success, got %v", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("Expected state=Closed after 2 successes, got %v", cb.State())
	}
	if cb.failures != 0 || cb.successes != 0 {
		t.Errorf("Expected counters reset after closing, got failures=%d successes=%d", cb.failures, cb.successes)
	}
}

func TestCircuitBreakerHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
	})

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	cb.Allow()

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected state=Open after failure in half-open, got %v", cb.State())
	}
	if cb.successes != 0 {
		t.Errorf("Expected successes=0 after failure, got %d", cb.successes)
	}
}

func TestCircuitBreakerConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  10 * time.Millisecond,
	})

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cb.Allow()
				if j%2 == 0 {
					cb.RecordSuccess()
				} else {
					cb.RecordFailure()
				}
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	switch cb.State() {
	case StateClosed, StateOpen, StateHalfOpen:
	default:
		t.Errorf("Invalid circuit breaker state after concurrent access: %v", cb.State())
	}
}

func TestCircuitStateString(t *testing.T) {
	tests := map[CircuitState]string{
		StateClosed:     "closed",
		StateOpen:       "open",
		StateHalfOpen:   "half-open",
		CircuitState(9): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

func TestBreakerSetOrderSkipsOpenHosts(t *testing.T) {
	bs := newBreakerSet(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	retryable := &NetworkError{Host: "b", StatusCode: 503}

	if state := bs.record("b", retryable); state != StateOpen {
		t.Fatalf("Expected b to open after one retryable failure, got %v", state)
	}

	got := bs.order([]string{"a", "b", "c"})
	want := []string{"a", "c"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("order() = %v, want %v", got, want)
	}
}

func TestBreakerSetOrderAllOpen(t *testing.T) {
	bs := newBreakerSet(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	for _, h := range []string{"a", "b"} {
		bs.record(h, &NetworkError{Host: h, Cause: errors.New("refused")})
	}

	got := bs.order([]string{"a", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected configured order when every host is open, got %v", got)
	}
}

func TestBreakerSetFatalErrorsDoNotTrip(t *testing.T) {
	bs := newBreakerSet(CircuitBreakerConfig{FailureThreshold: 1})

	if state := bs.record("a", &RequestError{Host: "a", StatusCode: 404}); state != StateClosed {
		t.Errorf("Expected a 4xx to leave the host healthy, got %v", state)
	}
}

func TestNilBreakerSet(t *testing.T) {
	var bs *breakerSet
	hosts := []string{"a", "b"}

	if got := bs.order(hosts); len(got) != 2 {
		t.Errorf("Expected nil set to keep hosts, got %v", got)
	}
	if state := bs.record("a", errors.New("x")); state != StateClosed {
		t.Errorf("Expected nil set to report closed, got %v", state)
	}
}
