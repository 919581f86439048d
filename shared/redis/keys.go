package redis

import "fmt"

// Redis Key 前缀
const (
	// TokenInfoKeyPrefix Token 登记信息
	// Key: token:info:{token}
	TokenInfoKeyPrefix = "token:info:"

	// ActivityKeyPrefix 活跃时间写入节流标记
	// Key: campus:activity:{userId}
	ActivityKeyPrefix = "campus:activity:"

	// RateLimitKeyPrefix 固定窗口限流计数
	// Key: campus:ratelimit:{clientIP}:{window}
	RateLimitKeyPrefix = "campus:ratelimit:"
)

// BuildTokenInfoKey 构建 Token 信息 Key
func BuildTokenInfoKey(token string) string {
	return TokenInfoKeyPrefix + token
}

// BuildActivityKey 构建活跃节流 Key
func BuildActivityKey(userID int64) string {
	return fmt.Sprintf("%s%d", ActivityKeyPrefix, userID)
}

// BuildRateLimitKey 构建限流 Key，window 为窗口序号
func BuildRateLimitKey(clientIP string, window int64) string {
	return fmt.Sprintf("%s%s:%d", RateLimitKeyPrefix, clientIP, window)
}
