package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	sharedRedis "sudooom.im.campus/shared/redis"
)

// RateLimiter 基于 Redis 的固定窗口计数
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter 创建限流器，每个窗口最多放行 limit 次
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow 计数并判断 key 在当前窗口内是否仍有余量
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	redisKey := sharedRedis.BuildRateLimitKey(key, slot)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= l.limit, nil
}
