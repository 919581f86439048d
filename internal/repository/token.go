package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	sharedRedis "sudooom.im.campus/shared/redis"
)

// TokenInfo 存储在 Redis 中的登录信息
type TokenInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenRepository Token 数据访问层
type TokenRepository struct {
	rdb *redis.Client
}

// NewTokenRepository 创建 Token Repository
func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{rdb: rdb}
}

// SaveToken 登记 Token: token:info:{accessToken} -> info JSON
func (r *TokenRepository) SaveToken(ctx context.Context, info *TokenInfo, accessToken string, expiration time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal token info: %w", err)
	}

	if err := r.rdb.Set(ctx, sharedRedis.BuildTokenInfoKey(accessToken), data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetUserInfoByToken 根据 Token 获取登录信息，未登记时返回 nil
func (r *TokenRepository) GetUserInfoByToken(ctx context.Context, accessToken string) (*TokenInfo, error) {
	data, err := r.rdb.Get(ctx, sharedRedis.BuildTokenInfoKey(accessToken)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var info TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token info: %w", err)
	}
	return &info, nil
}

// DeleteToken 删除 Token（登出时使用）
func (r *TokenRepository) DeleteToken(ctx context.Context, accessToken string) error {
	return r.rdb.Del(ctx, sharedRedis.BuildTokenInfoKey(accessToken)).Err()
}
