package cari

import (
	"sync/atomic"
	"time"
)

// NewRateLimiter creates a token bucket holding maxTokens, refilled by one
// token every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		maxTokens:  int64(maxTokens),
		tokens:     int64(maxTokens),
		refillRate: refillRate,
		lastRefill: time.Now().UnixNano(),
	}
}

// Allow checks if a dispatch is allowed by the rate limiter
func (rl *RateLimiter) Allow() bool {
	rl.refillTokens()
	return rl.consumeToken()
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() int {
	return int(atomic.LoadInt64(&rl.tokens))
}

// refillTokens claims the whole refill intervals elapsed since lastRefill and
// adds their tokens. Only the goroutine that wins the claim adds, and it adds
// with a CAS so tokens consumed concurrently are never written back.
func (rl *RateLimiter) refillTokens() {
	if rl.refillRate <= 0 {
		return
	}
	now := time.Now().UnixNano()

	for {
		lastRefill := atomic.LoadInt64(&rl.lastRefill)
		tokensToAdd := (now - lastRefill) / int64(rl.refillRate)
		if tokensToAdd <= 0 {
			return
		}

		newLastRefill := lastRefill + tokensToAdd*int64(rl.refillRate)
		if atomic.CompareAndSwapInt64(&rl.lastRefill, lastRefill, newLastRefill) {
			rl.addTokens(tokensToAdd)
			return
		}
	}
}

func (rl *RateLimiter) addTokens(n int64) {
	for {
		currentTokens := atomic.LoadInt64(&rl.tokens)
		if currentTokens >= rl.maxTokens {
			return
		}
		newTokens := currentTokens + n
		if newTokens > rl.maxTokens {
			newTokens = rl.maxTokens
		}
		if atomic.CompareAndSwapInt64(&rl.tokens, currentTokens, newTokens) {
			return
		}
	}
}

func (rl *RateLimiter) consumeToken() bool {
	for {
		currentTokens := atomic.LoadInt64(&rl.tokens)
		if currentTokens <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&rl.tokens, currentTokens, currentTokens-1) {
			return true
		}
	}
}
