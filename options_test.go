package cari

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ambiyansyah-risyal/cari/internal/backoff"
)

var testHosts = WithHostList([]string{"r1.example", "r2.example"}, []string{"w1.example"})

func TestBackoffOptions(t *testing.T) {
	client := New(testHosts,
		WithInitialBackoff(10*time.Millisecond),
		WithMaxBackoff(time.Second),
		WithBackoffMultiplier(3),
		WithJitter(2),
		WithDecorrelatedJitter(),
	)

	if client.backoff.Initial != 10*time.Millisecond || client.backoff.Max != time.Second {
		t.Errorf("Unexpected backoff bounds %+v", client.backoff)
	}
	if client.backoff.Multiplier != 3 {
		t.Errorf("Expected multiplier 3, got %v", client.backoff.Multiplier)
	}
	if client.backoff.Jitter != 1 {
		t.Errorf("Expected jitter clamped to 1, got %v", client.backoff.Jitter)
	}
	if _, ok := client.backoff.Strategy.(backoff.DecorrelatedJitter); !ok {
		t.Errorf("Expected decorrelated jitter, got %T", client.backoff.Strategy)
	}
}

func TestWithHostConfig(t *testing.T) {
	client := New(WithHostConfig(Hosts{Read: []string{"r.example"}, Write: []string{"w.example"}}))

	if got := client.Hosts(); got.Read[0] != "r.example" || got.Write[0] != "w.example" {
		t.Errorf("Unexpected hosts %+v", got)
	}
}

func TestWithSearchCacheOption(t *testing.T) {
	client := New(testHosts, WithSearchCache(30*time.Second))
	a, b := client.InitIndex("a"), client.InitIndex("b")

	ca, ok := a.searchCache().(*ExpiringCache)
	if !ok || ca.TTL() != 30*time.Second {
		t.Fatalf("Expected a 30s ExpiringCache, got %#v", a.searchCache())
	}
	if a.searchCache() == b.searchCache() {
		t.Error("Expected one cache per index")
	}

	if New(testHosts).InitIndex("a").searchCache() != nil {
		t.Error("Expected no search cache by default")
	}
}

func TestWithCustomSearchCache(t *testing.T) {
	shared := NewExpiringCache(time.Minute)
	var names []string
	client := New(testHosts, WithCustomSearchCache(func(index string) Cache {
		names = append(names, index)
		return shared
	}))
	client.InitIndex("products")

	if len(names) != 1 || names[0] != "products" {
		t.Errorf("Expected factory called with the index name, got %v", names)
	}
}

func TestTransportOptions(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	if New(testHosts, WithHTTPClient(custom)).httpClient != custom {
		t.Error("Expected custom HTTP client")
	}

	rt := RoundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, nil })
	if New(testHosts, WithTransport(rt)).httpClient.Transport == nil {
		t.Error("Expected custom transport")
	}
}

func TestObservabilityOptions(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)
	client := New(testHosts, WithMetricsCollector(collector), WithDebugConfig(nil), WithSimpleLogger())

	if client.metrics != collector {
		t.Error("Expected custom metrics collector")
	}
	if !client.debug.Enabled || client.logger == nil {
		t.Error("Expected debug logging enabled")
	}
	if !client.IsValid() {
		t.Errorf("Expected valid client, got %v", client.ValidationError())
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"no hosts", nil, "no read hosts configured"},
		{"bad host", []Option{WithHostList([]string{"http://"}, []string{"w.example"})}, "invalid host"},
		{"attempt timeout", []Option{testHosts, WithAttemptTimeout(0)}, "attemptTimeout must be positive"},
		{"task timeout", []Option{testHosts, WithTaskWaitTimeout(-time.Second)}, "taskWaitTimeout must be positive"},
		{"backoff bounds", []Option{testHosts, WithInitialBackoff(time.Second), WithMaxBackoff(time.Millisecond)}, "maxBackoff"},
		{"multiplier", []Option{testHosts, WithBackoffMultiplier(0.5)}, "backoffMultiplier"},
		{"breaker", []Option{testHosts, WithHostCircuitBreaker(CircuitBreakerConfig{FailureThreshold: -1})}, "failureThreshold"},
		{"rate limiter", []Option{testHosts, WithRateLimiter(0, time.Second)}, "maxTokens must be positive"},
		{"class rate limiter", []Option{testHosts, WithClassRateLimiter(Write, 1, 0)}, `"write" refillRate`},
		{"cache ttl", []Option{testHosts, WithSearchCache(-time.Second)}, "search cache TTL"},
		{"debug", []Option{testHosts, WithDebug()}, "no logger"},
		{"nil http client", []Option{testHosts, WithHTTPClient(nil)}, "httpClient"},
		{"nil middleware", []Option{testHosts, WithMiddleware(nil)}, "middleware at index 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.opts...)
			if client.IsValid() {
				t.Fatal("Expected validation failure")
			}
			if !strings.Contains(client.ValidationError().Error(), tt.want) {
				t.Errorf("Expected %q in %v", tt.want, client.ValidationError())
			}
		})
	}
}

func TestOptionsOrderIndependence(t *testing.T) {
	client1 := New(testHosts, WithAttemptTimeout(time.Second), WithSearchCache(time.Minute))
	client2 := New(WithSearchCache(time.Minute), WithAttemptTimeout(time.Second), testHosts)

	if client1.attemptTimeout != client2.attemptTimeout || client1.searchCacheTTL != client2.searchCacheTTL {
		t.Error("Option order affected configuration")
	}
}
