package service

import (
	"context"
	"log/slog"
	"time"
)

// ActivityService 记录用户最后活跃时间
// 每个已认证请求都会调用 Touch，由节流器限制同一用户的写入频率
type ActivityService struct {
	users    UserStore
	throttle ActivityThrottler
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewActivityService 创建活跃时间服务，throttle 为 nil 时每次都写入
func NewActivityService(users UserStore, throttle ActivityThrottler, interval time.Duration) *ActivityService {
	return &ActivityService{
		users:    users,
		throttle: throttle,
		interval: interval,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// Touch 按节流间隔记录活跃时间，失败只记录日志
func (s *ActivityService) Touch(ctx context.Context, userID int64) {
	if s.throttle != nil && s.interval > 0 {
		ok, err := s.throttle.Acquire(ctx, userID, s.interval)
		if err != nil {
			// 节流不可用时直接写库
			s.logger.Warn("activity throttle unavailable", "userId", userID, "error", err)
		} else if !ok {
			return
		}
	}
	s.write(ctx, userID)
}

// ForceTouch 忽略节流立即记录，登录与注册时使用
func (s *ActivityService) ForceTouch(ctx context.Context, userID int64) {
	s.write(ctx, userID)
}

func (s *ActivityService) write(ctx context.Context, userID int64) {
	if err := s.users.TouchLastActivity(ctx, userID, s.now()); err != nil {
		s.logger.Warn("touch last activity failed", "userId", userID, "error", err)
	}
}
