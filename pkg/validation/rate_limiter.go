// pkg/validation/rate_limiter.go
package validation

import (
	"sync"
	"time"
)

// RateLimiter is a per-client token bucket. Each client gets maxTokens
// tokens per window; a stopped client's bucket is dropped after two
// idle windows so the map cannot grow without bound.
type RateLimiter struct {
	maxTokens int
	window    time.Duration

	mu      sync.RWMutex
	buckets map[string]*tokenBucket

	cleanupTick *time.Ticker
	done        chan struct{}
}

// tokenBucket tracks the remaining tokens for one client.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	window     time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a limiter granting maxTokens requests per
// window per client and starts its cleanup loop. Call Close when done.
func NewRateLimiter(maxTokens int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxTokens: maxTokens,
		window:    window,
		buckets:   make(map[string]*tokenBucket),
		done:      make(chan struct{}),
	}

	rl.cleanupTick = time.NewTicker(window)
	go rl.cleanupLoop()

	return rl
}

// Allow reports whether the client may make another request, consuming
// one token if so. Unknown clients start with a full bucket.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.RLock()
	bucket, ok := rl.buckets[clientID]
	rl.mu.RUnlock()

	if !ok {
		bucket = &tokenBucket{
			tokens:     rl.maxTokens,
			maxTokens:  rl.maxTokens,
			window:     rl.window,
			lastRefill: time.Now(),
		}
		rl.mu.Lock()
		// Another goroutine may have raced us here; keep the first one.
		if existing, ok := rl.buckets[clientID]; ok {
			bucket = existing
		} else {
			rl.buckets[clientID] = bucket
		}
		rl.mu.Unlock()
	}

	return bucket.take()
}

// take refills the bucket proportionally to the time elapsed since the
// last refill, then tries to consume one token.
func (b *tokenBucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 && b.tokens < b.maxTokens {
		refill := int(float64(b.maxTokens) * (float64(elapsed) / float64(b.window)))
		if refill > 0 {
			b.tokens += refill
			if b.tokens > b.maxTokens {
				b.tokens = b.maxTokens
			}
			b.lastRefill = now
		}
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// cleanupLoop periodically evicts buckets that have been idle for two
// full windows.
func (rl *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	cutoff := time.Now().Add(-2 * rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for clientID, bucket := range rl.buckets {
		bucket.mu.Lock()
		idle := bucket.lastRefill.Before(cutoff)
		bucket.mu.Unlock()
		if idle {
			delete(rl.buckets, clientID)
		}
	}
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	close(rl.done)
	rl.cleanupTick.Stop()
}
