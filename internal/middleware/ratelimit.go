package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerMin int
	BurstSize      int
	MaxClients     int
	ClientTTL      time.Duration
}

// RateLimiter keeps one token bucket per client. Idle clients age out of
// the LRU, which bounds memory.
type RateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerMin <= 0 {
		config.RequestsPerMin = 100
	}
	if config.BurstSize <= 0 {
		config.BurstSize = config.RequestsPerMin / 10
		if config.BurstSize < 1 {
			config.BurstSize = 1
		}
	}
	if config.MaxClients <= 0 {
		config.MaxClients = 10000
	}
	if config.ClientTTL <= 0 {
		config.ClientTTL = 5 * time.Minute
	}

	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](config.MaxClients, nil, config.ClientTTL),
		rate:     rate.Limit(float64(config.RequestsPerMin) / 60.0),
		burst:    config.BurstSize,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	return limiter.Allow()
}

// Middleware keys on the authenticated user when there is one, otherwise
// on the client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := UserID(c); ok {
			key = "user:" + id.String()
		}

		if !rl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
