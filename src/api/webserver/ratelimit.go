package webserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Sliding-window limiter keyed by authenticated user, falling back to
// client IP for anonymous traffic.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
}

type window struct {
	hits []time.Time
}

func NewRateLimiter(limit int, span time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
	}
	go rl.prune()
	return rl
}

func (rl *RateLimiter) prune() {
	ticker := time.NewTicker(rl.span)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-rl.span)
		rl.mu.Lock()
		for key, w := range rl.windows {
			w.trim(cutoff)
			if len(w.hits) == 0 {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (w *window) trim(cutoff time.Time) {
	i := 0
	for i < len(w.hits) && w.hits[i].Before(cutoff) {
		i++
	}
	w.hits = w.hits[i:]
}

// Allow records a hit for key and reports whether it stays under the
// limit.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		w = &window{}
		rl.windows[key] = w
	}
	w.trim(now.Add(-rl.span))
	if len(w.hits) >= rl.limit {
		return false
	}
	w.hits = append(w.hits, now)
	return true
}

func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("uid")
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"err": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
