package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is an in-memory Limiter. Each client key owns a bucket
// that starts full and refills continuously at capacity tokens per
// window. Suitable for a single server process; use RedisLimiter when
// several replicas must share one budget.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	window   time.Duration

	cleanup *time.Ticker
	done    chan struct{}
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// TokenBucketConfig configures a TokenBucket.
type TokenBucketConfig struct {
	// Capacity is the burst size and the per-window request budget.
	Capacity int
	// Window is the time it takes an empty bucket to refill completely.
	Window time.Duration
	// CleanupInterval is how often idle buckets are evicted. Zero
	// disables the cleanup goroutine.
	CleanupInterval time.Duration
}

// DefaultTokenBucketConfig allows 60 requests per minute per client,
// enough for a human conversation with headroom for page loads.
func DefaultTokenBucketConfig() TokenBucketConfig {
	return TokenBucketConfig{
		Capacity:        60,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewTokenBucket creates a token bucket limiter with default settings.
func NewTokenBucket() *TokenBucket {
	return NewTokenBucketWithConfig(DefaultTokenBucketConfig())
}

// NewTokenBucketWithConfig creates a token bucket limiter.
func NewTokenBucketWithConfig(config TokenBucketConfig) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		capacity: config.Capacity,
		window:   config.Window,
		done:     make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		tb.cleanup = time.NewTicker(config.CleanupInterval)
		go tb.cleanupLoop()
	}

	return tb
}

// Allow implements Limiter.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Info, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{
			tokens:     tb.capacity - 1, // this request takes one
			lastRefill: now,
		}
		tb.buckets[key] = b
		return tb.info(b, now, true), nil
	}

	// Refill proportionally to elapsed time: capacity tokens per window.
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		refill := int(float64(tb.capacity) * elapsed.Seconds() / tb.window.Seconds())
		if refill > 0 {
			b.tokens = min(tb.capacity, b.tokens+refill)
			b.lastRefill = now
		}
	}

	if b.tokens <= 0 {
		return tb.info(b, now, false), nil
	}

	b.tokens--
	return tb.info(b, now, true), nil
}

func (tb *TokenBucket) info(b *bucket, now time.Time, allowed bool) *Info {
	return &Info{
		Limit:     tb.capacity,
		Remaining: b.tokens,
		ResetAt:   b.lastRefill.Add(tb.window),
		Allowed:   allowed,
	}
}

func (tb *TokenBucket) cleanupLoop() {
	for {
		select {
		case <-tb.cleanup.C:
			tb.evictIdle()
		case <-tb.done:
			return
		}
	}
}

// evictIdle drops buckets untouched for two full windows. Such buckets
// are back to full capacity anyway, so dropping them changes nothing
// for the client.
func (tb *TokenBucket) evictIdle() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) > 2*tb.window {
			delete(tb.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (tb *TokenBucket) Close() error {
	close(tb.done)
	if tb.cleanup != nil {
		tb.cleanup.Stop()
	}
	return nil
}
