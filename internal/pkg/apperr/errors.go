package apperr

import "errors"

// Business Error Codes
const (
	CodeSuccess          = 0
	CodeBadRequest       = 400
	CodeUnauthorized     = 401
	CodePermissionDenied = 403
	CodeNotFound         = 404
	CodeInternalError    = 500
	CodeDatabaseError    = 1001
	CodeCacheError       = 1002
	CodeInvalidState     = 1003
)

// Business Errors
var (
	ErrInvalidParams = errors.New("invalid parameters")
	ErrUnauthorized  = errors.New("unauthorized")
)

// AppError Application Error with code and message
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError Create new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// PermissionDenied 权限不足（可恢复，原样回显给用户，不是 5xx）
func PermissionDenied(message string) *AppError {
	return &AppError{Code: CodePermissionDenied, Message: message}
}

// NotFound 目标不存在或对当前用户不可见（两者刻意不可区分）
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// InvalidState 用法错误（区别于权限错误，带可操作的提示）
func InvalidState(message string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: message}
}

// IsPermissionDenied 是否权限错误
func IsPermissionDenied(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == CodePermissionDenied
}

// IsNotFound 是否不存在错误
func IsNotFound(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == CodeNotFound
}

// IsInvalidState 是否状态错误
func IsInvalidState(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == CodeInvalidState
}

// WrapError Wrap error with code
func WrapError(err error, code int) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
	}
}
