package middleware

import (
	"net/http"
	"sync"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxLimiters 超过后清空限流器表
const maxLimiters = 10000

// RateLimiter 按调用方限流，已认证时按用户ID，否则按客户端IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter 创建限流器，rps 非正数时不限流
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     limit,
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler 返回 gin 限流中间件
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if claims, ok := auth.CurrentClaims(c); ok {
			key = "user:" + claims.Subject
		}

		if !rl.getLimiter(key).Allow() {
			logger.Warn("Rate limit exceeded: key=%s method=%s path=%s", key, c.Request.Method, c.FullPath())
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "请求过于频繁，请稍后再试",
				"data":    nil,
			})
			return
		}

		c.Next()
	}
}
