// Package middleware contains the Gin middleware of the notifier's admin API.
//
// This file implements a process-local token-bucket rate limiter. Buckets
// come from golang.org/x/time/rate and live in a go-cache instance, so
// buckets idle for longer than the TTL are evicted by the cache janitor.
//
// Admin actions fan out to messaging platforms, so the limiter protects the
// sender bots' quotas as much as the process itself. It is not an
// authorization mechanism.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to its bucket identity.
type KeyFunc func(*gin.Context) string

// KeyByActorOrIP keys buckets by X-Actor-ID when present, else client IP.
func KeyByActorOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyActor); ok {
			if s, ok := v.(string); ok && s != "" {
				return "actor:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimiter hands out one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	keyFn   KeyFunc
	mu      sync.Mutex
	buckets *cache.Cache
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (minimum 1). Buckets idle for ttl are dropped; ttl <= 0 means
// ten minutes.
func NewRateLimiter(rps float64, burst int, ttl time.Duration, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: cache.New(ttl, 2*ttl),
	}
}

// bucket returns the limiter for key and refreshes its expiry.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim, ok := rl.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
	}
	rl.buckets.SetDefault(key, lim)
	return lim.(*rate.Limiter)
}

// Handler rejects requests over the limit with 429 and Retry-After: 1.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.bucket(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
