package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate
	BurstSize int
}

// DefaultRateLimitConfig returns the login throttle: 20 attempts per minute
// per client with a burst of 5
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 20,
		WindowDuration:    time.Minute,
		BurstSize:         5,
	}
}

// Limiter decides whether a request keyed by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// RetryAfter is how long a rejected key should wait
	RetryAfter(ctx context.Context, key string) time.Duration
	// Backend names the implementation in metrics
	Backend() string
}

// RateLimiter implements in-process rate limiting using a token bucket
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
	now     func() time.Time
}

type bucket struct {
	tokens     int
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) capacity() int {
	return rl.config.RequestsPerWindow + rl.config.BurstSize
}

// Backend implements Limiter
func (rl *RateLimiter) Backend() string {
	return "memory"
}

// Allow implements Limiter; it never fails
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.allow(key), nil
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     rl.capacity(),
			lastUpdate: rl.now(),
		}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(b.lastUpdate)

	// whole tokens only; lastUpdate moves forward once at least one is earned
	tokensToAdd := int(elapsed.Seconds() * float64(rl.config.RequestsPerWindow) / rl.config.WindowDuration.Seconds())
	if tokensToAdd > 0 {
		b.tokens += tokensToAdd
		if b.tokens > rl.capacity() {
			b.tokens = rl.capacity()
		}
		b.lastUpdate = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// RetryAfter implements Limiter: the time until one token is refilled
func (rl *RateLimiter) RetryAfter(_ context.Context, key string) time.Duration {
	perToken := rl.config.WindowDuration / time.Duration(rl.config.RequestsPerWindow)

	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()
	if !exists {
		return perToken
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	wait := perToken - rl.now().Sub(b.lastUpdate)
	if wait <= 0 {
		return perToken
	}
	return wait
}

// Remaining returns the number of remaining tokens for a key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		return rl.capacity()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tokens
}

// Cleanup removes buckets idle for two windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// StartCleanup runs Cleanup once per window until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, logger logrus.FieldLogger) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		defer observability.RecoverPanic(logger, "ratelimit cleanup")
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RateLimitMiddleware throttles requests per client IP
type RateLimitMiddleware struct {
	limiter  Limiter
	metrics  *observability.Metrics
	logger   *logrus.Logger
	failOpen bool
	clientIP clientIPResolver
}

// NewRateLimitMiddleware creates a rate limit middleware. Limiter errors let
// the request through unless SetFallbackEnabled(false) is called.
func NewRateLimitMiddleware(limiter Limiter, metrics *observability.Metrics, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
		failOpen: true,
	}
}

// SetTrustedProxies lists the proxies whose X-Forwarded-For and X-Real-IP
// headers name the client. Requests from anywhere else are keyed by their
// connection address.
func (m *RateLimitMiddleware) SetTrustedProxies(trusted []netip.Prefix) {
	m.clientIP = clientIPResolver{trusted: trusted}
}

// SetFallbackEnabled controls whether to fail open (true) or closed (false) on limiter errors
func (m *RateLimitMiddleware) SetFallbackEnabled(enabled bool) {
	m.failOpen = enabled
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + m.clientIP.resolve(r)

		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			log := observability.FromContext(ctx, m.logger).WithError(err).WithField("backend", m.limiter.Backend())
			if m.failOpen {
				log.Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			log.Error("Rate limiter unavailable, rejecting request")
			httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return
		}

		if !allowed {
			m.metrics.RecordRateLimited(m.limiter.Backend())
			retryAfter := m.limiter.RetryAfter(ctx, key)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retryAfter.Seconds()))))
			httputil.WriteTooManyRequests(w, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
