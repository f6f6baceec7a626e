package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/turtacn/PriviQ/pkg/errors"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int

	// SkipPaths bypass limiting entirely (probes, metrics).
	SkipPaths []string

	// IdleTTL evicts buckets of clients not seen for this long.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig allows 10 rps with a burst of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		IdleTTL:           10 * time.Minute,
	}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keys token buckets by client IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	skip    map[string]struct{}
	mu      sync.Mutex
	buckets map[string]*clientBucket
	now     func() time.Time
}

// NewRateLimiter normalizes cfg and returns a limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.RequestsPerSecond))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	return &RateLimiter{
		cfg:     cfg,
		skip:    skip,
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.buckets[key] = b
		if len(l.buckets)%256 == 0 {
			l.evictLocked(now)
		}
	}
	b.lastSeen = now
	return b.limiter
}

func (l *RateLimiter) evictLocked(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.buckets, k)
		}
	}
}

// Handler returns the gin middleware.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	limit := strconv.Itoa(l.cfg.Burst)
	return func(c *gin.Context) {
		if _, ok := l.skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		lim := l.bucket(c.ClientIP())
		res := lim.ReserveN(l.now(), 1)
		c.Header("X-RateLimit-Limit", limit)

		if delay := res.DelayFrom(l.now()); delay > 0 {
			res.CancelAt(l.now())
			retry := int(math.Ceil(delay.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":       errors.ErrCodeTooManyRequests.String(),
					"message":    "too many requests",
					"request_id": GetRequestID(c),
				},
			})
			return
		}

		remaining := int(lim.TokensAt(l.now()))
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
