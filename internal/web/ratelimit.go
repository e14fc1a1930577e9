package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter enforces a token bucket per client IP.
type RateLimiter struct {
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
// Buckets idle for 5 minutes are dropped.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return newRateLimiter(rps, burst, 5*time.Minute)
}

func newRateLimiter(rps float64, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: cache.New(idle, 2*idle),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Middleware rejects over-limit requests with 429.
func (m *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody("rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// limiterFor returns the bucket for ip. Every request slides the bucket's expiry, so only
// idle clients start over with a full burst.
func (m *RateLimiter) limiterFor(ip string) *rate.Limiter {
	if val, found := m.limiters.Get(ip); found {
		limiter := val.(*rate.Limiter)
		m.limiters.Set(ip, limiter, cache.DefaultExpiration)
		return limiter
	}

	limiter := rate.NewLimiter(m.rps, m.burst)
	if err := m.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		// Another request for ip won the insert.
		if val, found := m.limiters.Get(ip); found {
			return val.(*rate.Limiter)
		}
	}
	return limiter
}
