package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"alertbridge/pkg/metrics"
)

type Config struct {
	RPS   float64
	Burst int
	// MaxAge evicts limiters for clients not seen for this long.
	MaxAge time.Duration
}

func DefaultConfig() Config {
	return Config{
		RPS:    1.0,
		Burst:  5,
		MaxAge: 10 * time.Minute,
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter holds one token bucket per client key. Stale buckets are
// pruned lazily on access instead of by a background goroutine.
type KeyedLimiter struct {
	cfg       Config
	mu        sync.Mutex
	entries   map[string]*entry
	lastPrune time.Time
	now       func() time.Time
}

func New(cfg Config) *KeyedLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &KeyedLimiter{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) prune(now time.Time) {
	if l.cfg.MaxAge <= 0 || now.Sub(l.lastPrune) < l.cfg.MaxAge {
		return
	}
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.cfg.MaxAge {
			delete(l.entries, key)
		}
	}
	l.lastPrune = now
}

func (l *KeyedLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Middleware limits requests per client IP on the routes it is attached to.
func (l *KeyedLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(int(l.cfg.RPS))
	return func(c *gin.Context) {
		route := c.FullPath()
		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.RemoteIP()
		}

		c.Header("X-RateLimit-Limit", limit)
		if !l.Allow(clientIP) {
			metrics.IncRateLimitRequest(route, "limited")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"error_code": "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		metrics.IncRateLimitRequest(route, "allowed")
		c.Next()
	}
}
