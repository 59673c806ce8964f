package cari

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ambiyansyah-risyal/cari/internal/backoff"
)

// WithHostList sets the read and write host orderings.
func WithHostList(read, write []string) Option {
	return func(c *Client) {
		c.hosts = NewHosts(read, write)
	}
}

// WithHostConfig sets both host orderings from a Hosts value.
func WithHostConfig(hosts Hosts) Option {
	return WithHostList(hosts.Read, hosts.Write)
}

// WithAttemptTimeout sets the timeout of a single host attempt
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.attemptTimeout = d
	}
}

// WithInitialBackoff sets the delay before the first failover
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff.Initial = d
	}
}

// WithMaxBackoff sets the maximum failover delay
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff.Max = d
	}
}

// WithBackoffMultiplier sets the backoff multiplier
func WithBackoffMultiplier(f float64) Option {
	return func(c *Client) {
		c.backoff.Multiplier = f
	}
}

// WithJitter sets the jitter factor for backoff (0.0 to 1.0)
func WithJitter(f float64) Option {
	return func(c *Client) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.backoff.Jitter = f
	}
}

// WithDecorrelatedJitter switches failover delays to decorrelated jitter.
func WithDecorrelatedJitter() Option {
	return func(c *Client) {
		c.backoff.Strategy = backoff.DecorrelatedJitter{}
	}
}

// WithHostCircuitBreaker enables one circuit breaker per host. Hosts with an
// open circuit are skipped while at least one host of the class is healthy.
func WithHostCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breakerConfig = &config
	}
}

// WithRateLimiter limits every dispatch not covered by a class limiter.
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.limiterRegistry().setFallback(NewRateLimiter(maxTokens, refillRate))
	}
}

// WithClassRateLimiter limits dispatches of one traffic class, for example to
// keep bulk writes from starving searches.
func WithClassRateLimiter(class TrafficClass, maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.limiterRegistry().register(class, NewRateLimiter(maxTokens, refillRate))
	}
}

func (c *Client) limiterRegistry() *rateLimiterRegistry {
	if c.rateLimiters == nil {
		c.rateLimiters = newRateLimiterRegistry()
	}
	return c.rateLimiters
}

// WithSearchCache makes every index created by InitIndex cache search results
// in its own ExpiringCache. A non-positive ttl uses DefaultCacheTTL.
func WithSearchCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.searchCacheTTL = ttl
		c.newSearchCache = func(string) Cache { return NewExpiringCache(ttl) }
	}
}

// WithCustomSearchCache makes every index cache search results in the cache
// returned by newCache, for example a RedisCache shared between processes.
func WithCustomSearchCache(newCache func(index string) Cache) Option {
	return func(c *Client) {
		c.newSearchCache = newCache
	}
}

// WithTaskWaitTimeout bounds how long WaitTask polls.
func WithTaskWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.taskWaitTimeout = d
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithCredentials adds the application ID and API key headers to every
// request.
func WithCredentials(appID, apiKey string) Option {
	return WithMiddleware(CredentialsMiddleware(appID, apiKey))
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client. Attempt timeouts are enforced
// through request contexts, so its Timeout may stay zero.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTransport sets the transport of the underlying HTTP client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Transport: rt}
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		if config == nil {
			config = DefaultDebugConfig()
		}
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.hosts.validate()...)
	errors = append(errors, c.validateTimeouts()...)
	errors = append(errors, c.validateBackoff()...)
	errors = append(errors, c.validateCircuitBreakerConfig()...)
	errors = append(errors, c.validateRateLimiter()...)
	errors = append(errors, c.validateCache()...)
	errors = append(errors, c.validateDebugConfig()...)

	if c.httpClient == nil {
		errors = append(errors, "httpClient must not be nil")
	}
	for i, mw := range c.middleware {
		if mw == nil {
			errors = append(errors, fmt.Sprintf("middleware at index %d is nil", i))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("cari: configuration validation failed: %v", errors)
	}
	return nil
}

func (c *Client) validateTimeouts() []string {
	var errors []string
	if c.attemptTimeout <= 0 {
		errors = append(errors, "attemptTimeout must be positive")
	}
	if c.taskWaitTimeout <= 0 {
		errors = append(errors, "taskWaitTimeout must be positive")
	}
	return errors
}

func (c *Client) validateBackoff() []string {
	var errors []string
	if c.backoff.Initial < 0 {
		errors = append(errors, "initialBackoff must be non-negative")
	}
	if c.backoff.Max < c.backoff.Initial {
		errors = append(errors, "maxBackoff must be greater than or equal to initialBackoff")
	}
	if c.backoff.Multiplier < 1 {
		errors = append(errors, "backoffMultiplier must be at least 1")
	}
	return errors
}

func (c *Client) validateCircuitBreakerConfig() []string {
	var errors []string
	if c.breakerConfig == nil {
		return errors
	}
	if c.breakerConfig.FailureThreshold < 0 {
		errors = append(errors, "circuit breaker failureThreshold must be non-negative")
	}
	if c.breakerConfig.RecoveryTimeout < 0 {
		errors = append(errors, "circuit breaker recoveryTimeout must be non-negative")
	}
	if c.breakerConfig.SuccessThreshold < 0 {
		errors = append(errors, "circuit breaker successThreshold must be non-negative")
	}
	return errors
}

func (c *Client) validateRateLimiter() []string {
	var errors []string
	for name, l := range c.rateLimiters.all() {
		if l.maxTokens <= 0 {
			errors = append(errors, fmt.Sprintf("rate limiter %q maxTokens must be positive", name))
		}
		if l.refillRate <= 0 {
			errors = append(errors, fmt.Sprintf("rate limiter %q refillRate must be positive", name))
		}
	}
	return errors
}

func (c *Client) validateCache() []string {
	var errors []string
	if c.searchCacheTTL < 0 {
		errors = append(errors, "search cache TTL must be non-negative")
	}
	return errors
}

func (c *Client) validateDebugConfig() []string {
	var errors []string
	if c.debug.Enabled && c.logger == nil {
		errors = append(errors, "debug logging is enabled but no logger is set")
	}
	return errors
}
