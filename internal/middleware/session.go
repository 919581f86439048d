package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"sudooom.im.campus/internal/session"
	"sudooom.im.campus/pkg/response"
	apperrors "sudooom.im.campus/shared/errors"
)

const keyAccessToken = "access_token"

// ActivityToucher 记录用户活跃
type ActivityToucher interface {
	Touch(ctx context.Context, userID int64)
}

// Session 解析 Bearer Token 并把身份放入请求 context
// 凭证缺失或无效时不拦截请求，由下游决定是否要求认证；会话存储不可用时返回 503
func Session(resolver session.Resolver, activity ActivityToucher) gin.HandlerFunc {
	logger := slog.Default()

	return func(c *gin.Context) {
		token := session.ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrStorageUnavailable) {
				logger.Warn("session store unavailable", "path", c.Request.URL.Path, "requestId", GetRequestID(c), "error", err)
				response.ServiceUnavailable(c)
				c.Abort()
				return
			}
			logger.Debug("session not resolved", "path", c.Request.URL.Path, "error", err)
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), identity))
		c.Set(keyAccessToken, token)

		if activity != nil {
			activity.Touch(c.Request.Context(), identity.ID)
		}

		c.Next()
	}
}

// RequireIdentity 要求已认证，REST 接口使用
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity 从请求 context 获取身份
func GetIdentity(c *gin.Context) (*session.Identity, bool) {
	return session.FromContext(c.Request.Context())
}

// GetAccessToken 从 context 获取 access token
func GetAccessToken(c *gin.Context) string {
	return c.GetString(keyAccessToken)
}
