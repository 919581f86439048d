package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
	apperrors "sudooom.im.campus/shared/errors"
	"sudooom.im.campus/shared/jwt"
)

// RegisterRequest 注册请求，Role 为空时按学生注册
type RegisterRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=50"`
	Password     string `json:"password" binding:"required,min=6,max=72"`
	Role         string `json:"role" binding:"omitempty,oneof=student admin"`
	UniversityID string `json:"university_id" binding:"max=64"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AuthService 认证服务
type AuthService struct {
	users      AccountStore
	tokens     TokenStore
	activity   *ActivityService
	jwtService *jwt.Service
	hashCost   int
	logger     *slog.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(users AccountStore, tokens TokenStore, activity *ActivityService, jwtService *jwt.Service) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		activity:   activity,
		jwtService: jwtService,
		hashCost:   bcrypt.DefaultCost,
		logger:     slog.Default(),
	}
}

// Register 注册并直接登录，学生必须填写学号，管理员不保存学号
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if utf8.RuneCountInString(username) < 3 {
		return nil, apperrors.ErrInvalidParams.WithMessage("username must be at least 3 characters")
	}
	if !utf8.ValidString(username) || strings.ContainsRune(username, 0) {
		return nil, apperrors.ErrInvalidParams.WithMessage("username contains invalid characters")
	}

	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidParams.WithMessage("role must be student or admin")
	}

	universityID := strings.TrimSpace(req.UniversityID)
	switch role {
	case model.RoleStudent:
		if universityID == "" {
			return nil, apperrors.ErrInvalidParams.WithMessage("university id is required for students")
		}
	case model.RoleAdmin:
		universityID = ""
	}

	// 加密密码
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.ErrInvalidParams.WithMessage("password is too long")
		}
		return nil, apperrors.ErrServerError.Wrap(err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		UniversityID: universityID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, apperrors.ErrUsernameExists
		}
		s.logger.Error("create user failed", "username", username, "error", err)
		return nil, storageError(err)
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.activity.ForceTouch(ctx, user.ID)

	s.logger.Info("user registered", "userId", user.ID, "username", user.Username, "role", user.Role)
	return resp, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		s.logger.Error("load user failed", "username", req.Username, "error", err)
		return nil, storageError(err)
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	// 登录即视为一次活跃
	s.activity.ForceTouch(ctx, user.ID)

	s.logger.Info("user logged in", "userId", user.ID, "username", user.Username)
	return resp, nil
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 用 Refresh Token 换取新的 Token 对，用户需仍然存在
func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		s.logger.Error("load user failed", "userId", claims.UserID, "error", err)
		return nil, storageError(err)
	}

	return s.issue(ctx, user)
}

// issue 签发 Token 对并登记 Access Token
func (s *AuthService) issue(ctx context.Context, user *model.User) (*LoginResponse, error) {
	tokenPair, err := s.jwtService.GenerateTokenPair(jwt.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		return nil, apperrors.ErrServerError.Wrap(err)
	}

	info := &repository.TokenInfo{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}
	if err := s.tokens.SaveToken(ctx, info, tokenPair.AccessToken, s.jwtService.GetAccessExpire()); err != nil {
		s.logger.Error("save token failed", "userId", user.ID, "error", err)
		return nil, storageError(err)
	}

	return &LoginResponse{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         string(user.Role),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
	}, nil
}

// Logout 注销 Token
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if err := s.tokens.DeleteToken(ctx, accessToken); err != nil {
		s.logger.Error("delete token failed", "error", err)
		return storageError(err)
	}
	return nil
}
