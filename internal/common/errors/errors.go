// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，决定 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// String 返回类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// HTTPStatus 返回类别对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，WithMessage/WithError 派生的错误与原错误相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(kind Kind, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Wrap 包装错误
func Wrap(kind Kind, code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Kind:    e.Kind,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Kind:    e.Kind,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(KindInternal, 1000, "unknown error")
	ErrInvalidParams   = New(KindValidation, 1001, "invalid parameters")
	ErrNotFound        = New(KindNotFound, 1002, "resource not found")
	ErrConflict        = New(KindConflict, 1003, "resource state conflict")
	ErrDatabaseError   = New(KindInternal, 1004, "database error")
	ErrCacheError      = New(KindInternal, 1005, "cache error")
	ErrInternalError   = New(KindInternal, 1006, "internal error")
	ErrExternalService = New(KindInternal, 1007, "external service error")
	ErrRateLimitExceed = New(KindTooManyRequests, 1008, "too many requests")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized       = New(KindUnauthenticated, 2000, "authentication required")
	ErrTokenExpired       = New(KindUnauthenticated, 2001, "token expired")
	ErrTokenInvalid       = New(KindUnauthenticated, 2002, "invalid token")
	ErrTokenRevoked       = New(KindUnauthenticated, 2003, "token has been revoked")
	ErrPermissionDenied   = New(KindForbidden, 2004, "permission denied")
	ErrInvalidCredentials = New(KindUnauthenticated, 2005, "invalid email or password")
	ErrRoleNotAllowed     = New(KindForbidden, 2006, "role not allowed")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound     = New(KindNotFound, 3000, "user not found")
	ErrEmailExists      = New(KindValidation, 3001, "email already registered")
	ErrEmailInvalid     = New(KindValidation, 3002, "invalid email address")
	ErrPasswordTooShort = New(KindValidation, 3003, "password must be at least 6 characters")
	ErrUserHasRecords   = New(KindConflict, 3004, "user still owns spaces, bookings or payments")
	ErrInvalidRole      = New(KindValidation, 3005, "invalid role")
)

// 场地错误码 (4000-4999)
var (
	ErrSpaceNotFound     = New(KindNotFound, 4000, "space not found")
	ErrSpaceUnavailable  = New(KindConflict, 4001, "space is not available for booking")
	ErrSpaceHasBookings  = New(KindConflict, 4002, "cannot delete space with existing bookings")
	ErrImageUploadFailed = New(KindInternal, 4003, "image upload failed")
	ErrInvalidImage      = New(KindValidation, 4004, "invalid image")
)

// 预订错误码 (5000-5999)
var (
	ErrBookingNotFound      = New(KindNotFound, 5000, "booking not found")
	ErrInvalidTimeRange     = New(KindValidation, 5001, "end_datetime must be after start_datetime")
	ErrInvalidDateTime      = New(KindValidation, 5002, "invalid datetime format")
	ErrBookingStatusError   = New(KindConflict, 5003, "booking status does not allow this action")
	ErrInvalidBookingAction = New(KindValidation, 5004, "invalid booking action")
)

// 支付错误码 (6000-6999)
var (
	ErrPaymentNotFound    = New(KindNotFound, 6000, "payment not found")
	ErrPaymentStatusError = New(KindConflict, 6001, "payment status does not allow this action")
	ErrInvalidAmount      = New(KindValidation, 6002, "amount must be greater than zero")
	ErrBookingNotPayable  = New(KindConflict, 6003, "booking cannot be paid in its current status")
	ErrPaymentMethodError = New(KindValidation, 6004, "invalid payment method")
)

// 发票错误码 (7000-7999)
var (
	ErrInvoiceNotFound = New(KindNotFound, 7000, "invoice not found")
	ErrInvoiceExists   = New(KindConflict, 7001, "invoice already exists for this booking")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误，非应用错误归为未知错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// HTTPStatus 返回错误对应的 HTTP 状态码
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return GetAppError(err).Kind.HTTPStatus()
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
