package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，仅用于日志）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// WithMessage 复制错误码并替换用户可见消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrServerError.Message
}

// Kind 返回错误码对应的分类名称，用于对外错误载荷
func Kind(code int) string {
	switch code {
	case CodeUnauthenticated, CodeTokenInvalid, CodeTokenExpired:
		return "UNAUTHENTICATED"
	case CodeNotAuthorized:
		return "NOT_AUTHORIZED"
	case CodeInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case CodeInvalidParams:
		return "VALIDATION_ERROR"
	case CodeInvalidParticipant:
		return "INVALID_PARTICIPANT"
	case CodeUsernameExists:
		return "USERNAME_EXISTS"
	case CodeStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	case CodeTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL"
	}
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeUnauthenticated    = 10001
	CodeInvalidCredentials = 10002
	CodeTokenInvalid       = 10003
	CodeTokenExpired       = 10004
	CodeNotAuthorized      = 10005

	// 参数相关 11000-11999
	CodeInvalidParams = 11002

	// 用户相关 11100-11199
	CodeUsernameExists = 11101

	// 会话相关 12000-12999
	CodeInvalidParticipant = 12001

	// 系统错误 50000-50999
	CodeServerError        = 50001
	CodeStorageUnavailable = 50002
	CodeTooManyRequests    = 50003
)

// ============== 预定义错误 ==============

// 认证相关
var (
	ErrUnauthenticated    = NewError(CodeUnauthenticated, "authentication required")
	ErrInvalidCredentials = NewError(CodeInvalidCredentials, "invalid username or password")
	ErrTokenInvalid       = NewError(CodeTokenInvalid, "token is invalid")
	ErrTokenExpired       = NewError(CodeTokenExpired, "token has expired")
	ErrNotAuthorized      = NewError(CodeNotAuthorized, "you are not authorized to access this conversation")
)

// 参数相关
var (
	ErrInvalidParams = NewError(CodeInvalidParams, "invalid parameters")
)

// 用户相关
var (
	ErrUsernameExists = NewError(CodeUsernameExists, "username already exists")
)

// 会话相关
var (
	ErrInvalidParticipant = NewError(CodeInvalidParticipant, "invalid conversation participant")
)

// 系统相关
var (
	ErrServerError        = NewError(CodeServerError, "internal server error")
	ErrStorageUnavailable = NewError(CodeStorageUnavailable, "storage unavailable")
	ErrTooManyRequests    = NewError(CodeTooManyRequests, "too many requests, please retry later")
)
