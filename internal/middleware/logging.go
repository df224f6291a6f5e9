package middleware

import (
	"time"

	"github.com/blues/propdao/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger 使用 zap 记录请求日志，替代 gin.Logger()
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			logger.Error("HTTP %s %s status=%d latency=%s ip=%s errors=%s",
				c.Request.Method, path, status, latency, c.ClientIP(), c.Errors.String())
		case status >= 400:
			logger.Warn("HTTP %s %s status=%d latency=%s ip=%s",
				c.Request.Method, path, status, latency, c.ClientIP())
		default:
			logger.Info("HTTP %s %s status=%d latency=%s ip=%s",
				c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}

// Recovery 捕获 panic 并记录日志
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered: method=%s path=%s panic=%v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(500, gin.H{
			"success": false,
			"message": "服务器内部错误",
			"data":    nil,
		})
	})
}
