package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"sudooom.im.campus/internal/middleware"
	"sudooom.im.campus/internal/service"
	"sudooom.im.campus/pkg/response"
	apperrors "sudooom.im.campus/shared/errors"
)

// AuthService 认证处理器依赖的服务
type AuthService interface {
	Register(ctx context.Context, req *service.RegisterRequest) (*service.LoginResponse, error)
	Login(ctx context.Context, req *service.LoginRequest) (*service.LoginResponse, error)
	Refresh(ctx context.Context, req *service.RefreshRequest) (*service.LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

// AuthHandler 认证处理器
type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService, logger: slog.Default()}
}

// Register 用户注册，成功后直接返回 Token 对
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams,
			"username (3-50 chars) and password (6-72 chars) are required, role must be student or admin")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "register", err)
		return
	}

	response.Success(c, resp)
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, "username and password are required")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	response.Success(c, resp)
}

// Refresh 刷新 Token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, "refresh_token is required")
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "refresh", err)
		return
	}

	response.Success(c, resp)
}

// Logout 用户登出，Token 立即失效
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetAccessToken(c)); err != nil {
		h.fail(c, "logout", err)
		return
	}

	response.Success(c, nil)
}

// fail 输出错误响应，服务端故障带上 request id 记录
func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	switch apperrors.GetCode(err) {
	case apperrors.CodeStorageUnavailable, apperrors.CodeServerError:
		h.logger.Warn("auth request failed", "op", op, "requestId", middleware.GetRequestID(c), "error", err)
	}
	response.ErrorFromAppError(c, err)
}
