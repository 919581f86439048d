package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"sudooom.im.campus/pkg/response"
)

// Limiter 判断 key 是否还有请求余量
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit 按客户端 IP 限流，限流存储不可用时放行
func RateLimit(limiter Limiter) gin.HandlerFunc {
	logger := slog.Default()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		ok, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("rate limiter unavailable", "clientIp", ip, "error", err)
			c.Next()
			return
		}
		if !ok {
			response.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
