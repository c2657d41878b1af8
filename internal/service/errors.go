package service

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 面向调用方的业务错误，Code 在接口层保持稳定
type AppError struct {
	Code    int    `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Code, e.Message)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.cause != nil {
		msg += " (" + e.cause.Error() + ")"
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is 按错误码比较，便于 errors.Is(err, ErrInvalidView)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithReason 返回带原因说明的副本
func (e *AppError) WithReason(format string, args ...any) *AppError {
	cp := *e
	cp.Reason = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap 返回携带底层原因的副本
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.cause = err
	return &cp
}

var (
	ErrUserAlreadyExists   = &AppError{Code: 5000, Status: http.StatusConflict, Message: "用户已存在"}
	ErrLoginBadCredentials = &AppError{Code: 5002, Status: http.StatusUnauthorized, Message: "邮箱或密码错误"}
	ErrInvalidField        = &AppError{Code: 5003, Status: http.StatusBadRequest, Message: "参数不合法"}
	ErrAccessDenied        = &AppError{Code: 5005, Status: http.StatusForbidden, Message: "无权访问"}
	ErrNonExistentUser     = &AppError{Code: 5006, Status: http.StatusNotFound, Message: "用户不存在"}

	ErrNonExistentVideo = &AppError{Code: 6001, Status: http.StatusNotFound, Message: "视频不存在"}

	ErrNonExistentComment = &AppError{Code: 7001, Status: http.StatusNotFound, Message: "评论不存在"}
	ErrNonExistentRating  = &AppError{Code: 8001, Status: http.StatusNotFound, Message: "尚未评价"}

	// ErrViewRecord 指纹服务不可用或无访问记录，调用方可重试
	ErrViewRecord = &AppError{Code: 9000, Status: http.StatusServiceUnavailable, Message: "记录观看时发生错误"}
	// ErrLimitView 保留的错误类型：超出配额的观看目前降级为不计数，而不是报错
	ErrLimitView       = &AppError{Code: 9001, Status: http.StatusTooManyRequests, Message: "观看次数已达上限"}
	ErrInvalidView     = &AppError{Code: 9002, Status: http.StatusBadRequest, Message: "无效的观看记录"}
	ErrNonExistentView = &AppError{Code: 9003, Status: http.StatusNotFound, Message: "观看记录不存在"}
)

// AsAppError 判断是否为业务错误
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
