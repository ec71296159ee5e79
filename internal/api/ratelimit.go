package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimiter allows each client IP at most max requests per fixed window.
type RateLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	clients   map[string]*windowEntry
	lastSweep time.Time
}

// windowEntry holds one client's budget for the current window. A zero-rate
// limiter spends its burst and never refills; a new one is issued when the
// window rolls over.
type windowEntry struct {
	limiter *rate.Limiter
	resetAt time.Time
}

// NewRateLimiter creates a limiter of max requests per window.
func NewRateLimiter(max int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		logger:  logger,
		clients: make(map[string]*windowEntry),
	}
}

// allow consumes one request for key and reports the remaining budget.
func (rl *RateLimiter) allow(key string) (bool, int, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.window {
		for k, entry := range rl.clients {
			if !now.Before(entry.resetAt) {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	entry, exists := rl.clients[key]
	if !exists || !now.Before(entry.resetAt) {
		entry = &windowEntry{
			limiter: rate.NewLimiter(0, rl.max),
			resetAt: now.Add(rl.window),
		}
		rl.clients[key] = entry
	}

	ok := entry.limiter.AllowN(now, 1)
	return ok, entry.limiter.Burst(), entry.resetAt
}

// Middleware rejects requests over budget with 429. Paths in skip are not counted.
func (rl *RateLimiter) Middleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		ok, remaining, resetAt := rl.allow(clientIP)

		resetIn := int(resetAt.Sub(rl.now()).Round(time.Second) / time.Second)
		c.Header("RateLimit-Limit", strconv.Itoa(rl.max))
		c.Header("RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(resetIn))

		if !ok {
			rl.logger.Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.String("correlation_id", GetCorrelationID(c)),
			)
			c.Header("Retry-After", strconv.Itoa(resetIn))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitMessage})
			return
		}
		c.Next()
	}
}
