package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sharedErrors "sudooom.im.campus/shared/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 错误码常量（使用 shared/errors 包的定义）
const (
	CodeSuccess            = sharedErrors.CodeSuccess
	CodeUnauthenticated    = sharedErrors.CodeUnauthenticated
	CodeInvalidCredentials = sharedErrors.CodeInvalidCredentials
	CodeTokenInvalid       = sharedErrors.CodeTokenInvalid
	CodeTokenExpired       = sharedErrors.CodeTokenExpired
	CodeInvalidParams      = sharedErrors.CodeInvalidParams
	CodeUsernameExists     = sharedErrors.CodeUsernameExists
	CodeServerError        = sharedErrors.CodeServerError
	CodeTooManyRequests    = sharedErrors.CodeTooManyRequests
)

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应，非 AppError 只返回通用消息
func ErrorFromAppError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Response{
		Code:    sharedErrors.GetCode(err),
		Message: sharedErrors.GetMessage(err),
		Data:    nil,
	})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeUnauthenticated,
		Message: sharedErrors.ErrUnauthenticated.Message,
		Data:    nil,
	})
}

// TooManyRequests 请求过多
func TooManyRequests(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, Response{
		Code:    CodeTooManyRequests,
		Message: sharedErrors.ErrTooManyRequests.Message,
		Data:    nil,
	})
}

// ServiceUnavailable 依赖存储不可用
func ServiceUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, Response{
		Code:    sharedErrors.CodeStorageUnavailable,
		Message: sharedErrors.ErrStorageUnavailable.Message,
		Data:    nil,
	})
}
