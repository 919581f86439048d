package gateway

import (
	"context"
	"errors"

	apperrors "sudooom.im.campus/shared/errors"
)

// publicError 对外暴露的错误，只包含可展示的消息与分类码
// 实现 gqlerrors.ExtendedError，分类码写入 extensions.code
type publicError struct {
	message string
	code    string
}

func (e *publicError) Error() string {
	return e.message
}

func (e *publicError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// normalize 将任意错误转换为 publicError，内部原因不会出现在消息中
func normalize(err error) *publicError {
	var pub *publicError
	if errors.As(err, &pub) {
		return pub
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return &publicError{message: appErr.Message, code: apperrors.Kind(appErr.Code)}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fromAppError(apperrors.ErrStorageUnavailable)
	}

	return fromAppError(apperrors.ErrServerError)
}

func fromAppError(err *apperrors.AppError) *publicError {
	return &publicError{message: err.Message, code: apperrors.Kind(err.Code)}
}

// internal 是否为需要记录原因的服务端错误
func internal(code string) bool {
	return code == "INTERNAL" || code == "STORAGE_UNAVAILABLE"
}
