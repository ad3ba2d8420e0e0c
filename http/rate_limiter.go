package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/logging"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// RequestsPerSecond is the refill rate of each client's bucket.
	RequestsPerSecond float64
	// BurstSize is the bucket capacity.
	BurstSize int
	// KeyFunc extracts the rate limit key from the request.
	KeyFunc func(r *http.Request) string
	// OnLimitExceeded is called when a request is rejected.
	OnLimitExceeded func(r *http.Request, key string)
	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig limits each client to 5 submissions per second
// with bursts of 20.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         20,
		KeyFunc:           logging.ClientIP,
		CleanupInterval:   time.Minute,
	}
}

// TokenBucket implements the token bucket algorithm.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full token bucket.
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return newTokenBucket(maxTokens, refillRate, time.Now)
}

func newTokenBucket(maxTokens, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// refill must be called with mu held.
func (b *TokenBucket) refill() {
	now := b.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// Allow consumes a token if one is available.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tokens returns the current number of available tokens.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	config  RateLimiterConfig
	buckets sync.Map // map[string]*TokenBucket
	now     func() time.Time
	cancel  context.CancelFunc
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = logging.ClientIP
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl := &RateLimiter{
		config: config,
		now:    time.Now,
		cancel: cancel,
	}

	if config.CleanupInterval > 0 {
		go rl.cleanupLoop(ctx)
	}

	return rl
}

func (rl *RateLimiter) getBucket(key string) *TokenBucket {
	if bucket, ok := rl.buckets.Load(key); ok {
		return bucket.(*TokenBucket)
	}

	bucket := newTokenBucket(float64(rl.config.BurstSize), rl.config.RequestsPerSecond, rl.now)
	actual, _ := rl.buckets.LoadOrStore(key, bucket)
	return actual.(*TokenBucket)
}

// Allow reports whether the request may proceed and returns the bucket used.
func (rl *RateLimiter) Allow(r *http.Request) (bool, *TokenBucket) {
	key := rl.config.KeyFunc(r)
	bucket := rl.getBucket(key)

	if !bucket.Allow() {
		if rl.config.OnLimitExceeded != nil {
			rl.config.OnLimitExceeded(r, key)
		}
		return false, bucket
	}
	return true, bucket
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops full buckets, which have been idle long enough to refill.
func (rl *RateLimiter) cleanup() {
	rl.buckets.Range(func(key, value interface{}) bool {
		if value.(*TokenBucket).Tokens() >= float64(rl.config.BurstSize) {
			rl.buckets.Delete(key)
		}
		return true
	})
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	rl.cancel()
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, bucket := rl.Allow(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.BurstSize))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatFloat(bucket.Tokens(), 'f', 0, 64))

		if !allowed {
			w.Header().Set("Retry-After", "1")
			apperrors.WriteError(w,
				apperrors.RateLimited("Too many requests. Please slow down."),
				logging.RequestIDFromContext(r.Context()),
			)
			return
		}

		next.ServeHTTP(w, r)
	})
}
