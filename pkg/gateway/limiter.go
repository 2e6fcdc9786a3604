package gateway

import (
	"net/http"
	"sync"

	"shareit/pkg/config"
	"shareit/pkg/dto"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UserLimiter keeps one token bucket per caller.
type UserLimiter struct {
	limit    rate.Limit
	burst    int
	limiters sync.Map
}

// NewUserLimiter returns nil when rps is not positive, which disables limiting.
func NewUserLimiter(cfg config.RateLimitConfig) *UserLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &UserLimiter{limit: rate.Limit(cfg.RPS), burst: burst}
}

func (l *UserLimiter) Allow(key string) bool {
	v, ok := l.limiters.Load(key)
	if !ok {
		v, _ = l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	}
	return v.(*rate.Limiter).Allow()
}

// Middleware answers 429 once the caller's bucket is empty. Callers without
// a user header share a bucket per client IP.
func (l *UserLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := c.GetHeader(UserIDHeader)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
