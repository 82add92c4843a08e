package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			// Small sleep to prevent busy waiting
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	if elapsed >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// IntervalLimiter enforces a minimum interval between requests, with
// optional jitter so the traffic does not look mechanical. This models the
// polite pacing used against scraped pages: one request roughly every
// interval, varied by up to +/- jitter.
type IntervalLimiter struct {
	interval time.Duration
	jitter   time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewIntervalLimiter creates an interval limiter. jitter may be zero.
func NewIntervalLimiter(interval, jitter time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		interval: interval,
		jitter:   jitter,
	}
}

// Allow reports whether enough time has passed since the last request
func (il *IntervalLimiter) Allow() bool {
	il.mu.Lock()
	defer il.mu.Unlock()

	now := time.Now()
	if il.last.IsZero() || now.Sub(il.last) >= il.interval {
		il.last = now
		return true
	}
	return false
}

// Wait sleeps until the next request slot, then claims it
func (il *IntervalLimiter) Wait() {
	il.mu.Lock()

	now := time.Now()
	if il.last.IsZero() {
		il.last = now
		il.mu.Unlock()
		return
	}

	next := il.last.Add(il.nextInterval())
	wait := next.Sub(now)
	if wait <= 0 {
		il.last = now
		il.mu.Unlock()
		return
	}

	// Claim the slot before sleeping so concurrent callers queue up
	il.last = next
	il.mu.Unlock()

	time.Sleep(wait)
}

// Reset forgets the last request time
func (il *IntervalLimiter) Reset() {
	il.mu.Lock()
	defer il.mu.Unlock()

	il.last = time.Time{}
}

// nextInterval returns the interval varied by up to +/- jitter
func (il *IntervalLimiter) nextInterval() time.Duration {
	if il.jitter <= 0 {
		return il.interval
	}
	offset := time.Duration(rand.Int63n(int64(2*il.jitter))) - il.jitter
	interval := il.interval + offset
	if interval < 0 {
		interval = 0
	}
	return interval
}
