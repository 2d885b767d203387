// Package middleware provides rate limiting using the token bucket algorithm.
package middleware

import (
	"sync"
	"time"

	"github.com/crmsuite/calendard/internal/config"
	"github.com/crmsuite/calendard/internal/database"
)

// RateLimiter implements per-tier rate limiting using token buckets.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	limits  config.RateLimitsConfig
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(limits config.RateLimitsConfig) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		limits:  limits,
	}
}

// Allow checks if a request should be allowed based on the rate limit.
func (rl *RateLimiter) Allow(keyID, tier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[keyID]
	if !exists {
		bucket = rl.createBucket(tier)
		rl.buckets[keyID] = bucket
	}

	bucket.refill()

	if bucket.tokens >= 1.0 {
		bucket.tokens -= 1.0
		return true
	}

	return false
}

func (rl *RateLimiter) createBucket(tier string) *tokenBucket {
	var limit config.TierLimit

	switch tier {
	case database.TierRead:
		limit = rl.limits.Read
	case database.TierWrite:
		limit = rl.limits.Write
	case database.TierAdmin:
		limit = rl.limits.Admin
	default:
		// Unknown tiers get the most restrictive bucket
		limit = rl.limits.Write
	}

	return &tokenBucket{
		tokens:     float64(limit.Burst),
		maxTokens:  float64(limit.Burst),
		refillRate: float64(limit.RequestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
}

// GetRemainingTokens returns the number of remaining tokens for a key.
func (rl *RateLimiter) GetRemainingTokens(keyID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	bucket, exists := rl.buckets[keyID]
	if !exists {
		return 0
	}

	return int(bucket.tokens)
}

// Reset removes all rate limit state (useful for testing).
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.buckets = make(map[string]*tokenBucket)
}

// Cleanup removes stale buckets that haven't been used recently.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for keyID, bucket := range rl.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, keyID)
		}
	}
}
