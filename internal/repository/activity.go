package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	sharedRedis "sudooom.im.campus/shared/redis"
)

// ActivityThrottle 活跃时间写入节流
type ActivityThrottle struct {
	rdb *redis.Client
}

// NewActivityThrottle 创建节流器
func NewActivityThrottle(rdb *redis.Client) *ActivityThrottle {
	return &ActivityThrottle{rdb: rdb}
}

// Acquire 在 interval 内首次调用返回 true，其余返回 false
func (t *ActivityThrottle) Acquire(ctx context.Context, userID int64, interval time.Duration) (bool, error) {
	return t.rdb.SetNX(ctx, sharedRedis.BuildActivityKey(userID), 1, interval).Result()
}
