package httpmiddleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Buckets idle this long are dropped, so one-off clients (health probes,
// scanners) do not grow the map forever.
const staleAfter = 10 * time.Minute

// PerClientLimiter throttles requests per client IP with a token bucket.
type PerClientLimiter struct {
	capacity  int
	perMinute int

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens int
	seen   time.Time
}

// NewPerClientLimiter creates a limiter allowing perMinute requests with a
// burst of capacity per client.
func NewPerClientLimiter(capacity, perMinute int) *PerClientLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &PerClientLimiter{
		capacity:  capacity,
		perMinute: perMinute,
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// WithNow overrides the limiter's time source.
func (l *PerClientLimiter) WithNow(now func() time.Time) *PerClientLimiter {
	l.now = now
	return l
}

// GinMiddleware enforces the per-IP limit, answering 429 with the same
// error envelope the API handlers use plus a Retry-After hint.
func (l *PerClientLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.Header("Retry-After", strconv.Itoa(60/maxInt(l.perMinute, 1)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func (l *PerClientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictStale(now)

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, seen: now}
		return true
	}
	refill := int(now.Sub(b.seen).Minutes() * float64(l.perMinute))
	if refill > 0 {
		b.tokens = minInt(b.tokens+refill, l.capacity)
	}
	b.seen = now
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// evictStale drops idle buckets, at most once per staleAfter interval.
func (l *PerClientLimiter) evictStale(now time.Time) {
	if now.Sub(l.lastSweep) < staleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.seen) >= staleAfter {
			delete(l.buckets, key)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
