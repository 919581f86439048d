// Package session 负责把请求携带的凭证解析为调用方身份
package session

import (
	"context"
	"errors"
	"strings"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
	apperrors "sudooom.im.campus/shared/errors"
	"sudooom.im.campus/shared/jwt"
)

// Identity 已认证的调用方
type Identity struct {
	ID       int64
	Username string
	Role     model.Role
}

type identityKey struct{}

// WithIdentity 将身份放入 context
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext 取出身份，未认证时返回 false
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// Resolver 将访问凭证解析为身份
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// TokenLookup 查询已登记的 Token
type TokenLookup interface {
	GetUserInfoByToken(ctx context.Context, accessToken string) (*repository.TokenInfo, error)
}

// TokenResolver 校验 JWT 签名，并确认 Token 仍在 Redis 中登记（未登出）
type TokenResolver struct {
	jwtService *jwt.Service
	tokens     TokenLookup
}

// NewTokenResolver 创建 Token 解析器
func NewTokenResolver(jwtService *jwt.Service, tokens TokenLookup) *TokenResolver {
	return &TokenResolver{jwtService: jwtService, tokens: tokens}
}

// Resolve 实现 Resolver
func (r *TokenResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := r.jwtService.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	info, err := r.tokens.GetUserInfoByToken(ctx, token)
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable.Wrap(err)
	}
	if info == nil || info.UserID != claims.UserID {
		return nil, apperrors.ErrTokenInvalid
	}

	return &Identity{
		ID:       info.UserID,
		Username: info.Username,
		Role:     model.Role(info.Role),
	}, nil
}

// ExtractBearer 从 Authorization header 提取 token
func ExtractBearer(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
