package cari

import (
	"sync"
)

// rateLimiterRegistry holds one limiter per traffic class plus a fallback
// shared by classes without their own.
type rateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[TrafficClass]*RateLimiter
	fallback *RateLimiter
}

func newRateLimiterRegistry() *rateLimiterRegistry {
	return &rateLimiterRegistry{limiters: make(map[TrafficClass]*RateLimiter)}
}

func (r *rateLimiterRegistry) register(class TrafficClass, limiter *RateLimiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[class] = limiter
}

func (r *rateLimiterRegistry) setFallback(limiter *RateLimiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = limiter
}

// limiter returns the limiter governing class and the name it is reported
// under, or nil when the class is not limited.
func (r *rateLimiterRegistry) limiter(class TrafficClass) (*RateLimiter, string) {
	if r == nil {
		return nil, ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if l, ok := r.limiters[class]; ok {
		return l, class.String()
	}
	if r.fallback != nil {
		return r.fallback, "default"
	}
	return nil, ""
}

// allow takes a token for class. Unlimited classes are always allowed.
func (r *rateLimiterRegistry) allow(class TrafficClass) (allowed bool, name string, tokens int) {
	l, name := r.limiter(class)
	if l == nil {
		return true, name, 0
	}
	allowed = l.Allow()
	return allowed, name, l.Tokens()
}

func (r *rateLimiterRegistry) all() map[string]*RateLimiter {
	out := make(map[string]*RateLimiter)
	if r == nil {
		return out
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for class, l := range r.limiters {
		out[class.String()] = l
	}
	if r.fallback != nil {
		out["default"] = r.fallback
	}
	return out
}
