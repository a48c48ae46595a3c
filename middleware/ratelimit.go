package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"rex-retrieval/internal/config"
	"rex-retrieval/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// A visitor idle this many windows has a full bucket again and can be
// forgotten without changing behavior.
const staleAfterWindows = 3

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP using in-process token buckets.
// The retrieval service has no shared state across instances, so a local
// limiter is enough; swap in a shared store if this ever runs replicated.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	window    int
	lastSweep time.Time
}

func NewRateLimiter(cfg *config.Config) *RateLimiter {
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = 60
	}
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(float64(cfg.RateLimitReqs) / float64(window)),
		burst:     cfg.RateLimitReqs,
		window:    window,
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweepLocked evicts visitors idle past the stale horizon so the map does
// not grow with every distinct client IP ever seen. Runs at most once per
// window to keep the hot path cheap.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	window := time.Duration(rl.window) * time.Second
	if now.Sub(rl.lastSweep) < window {
		return
	}
	rl.lastSweep = now

	stale := staleAfterWindows * window
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > stale {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware rejects requests over the per-IP budget with 429.
// Health checks are never limited.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/healthz" {
			c.Next()
			return
		}

		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(
				time.Now().Add(time.Duration(rl.window)*time.Second).Unix(), 10))

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{"retry_after": rl.window})
			c.Abort()
			return
		}
		c.Next()
	}
}
