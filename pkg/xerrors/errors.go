// Package xerrors 提供带类型的业务错误，以及到 HTTP / gRPC 状态码的映射。
package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorType 错误的大类
type ErrorType uint

const (
	ErrUnknown ErrorType = iota
	ErrInternal
	ErrInvalidArg
	ErrDomain
	ErrNotFound
	ErrUnavailable
	ErrLimitExceeded
	ErrDeadlineExceeded
)

var typeNames = [...]string{
	"Unknown", "Internal", "InvalidArg", "Domain", "NotFound", "Unavailable", "LimitExceeded", "DeadlineExceeded",
}

func (t ErrorType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Error 增强型错误结构
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    int            `json:"code"`    // 业务错误码
	Message string         `json:"message"` // 对外展示的消息
	Detail  string         `json:"detail"`  // 对内调试信息
	Cause   error          `json:"-"`
	Stack   []string       `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap 返回原始错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// New 创建新错误并捕获调用栈
func New(errType ErrorType, code int, message string, cause error) *Error {
	e := &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
	e.captureStack()
	return e
}

// captureStack 捕获当前调用栈 (最多 8 层)
func (e *Error) captureStack() {
	const depth = 8
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		e.Stack = append(e.Stack, fmt.Sprintf("%s:%d (%s)", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
}

// WithContext 附加上下文字段
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithDetail 设置内部调试信息
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// --- 快捷构造 ---

func InvalidArg(format string, args ...any) *Error {
	return New(ErrInvalidArg, http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

// Domain 表示输入合法但数学上无定义的计算（如除零、对数定义域外）。
func Domain(format string, args ...any) *Error {
	return New(ErrDomain, http.StatusUnprocessableEntity, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) *Error {
	return New(ErrNotFound, http.StatusNotFound, fmt.Sprintf(format, args...), nil)
}

func Unavailable(msg string, cause error) *Error {
	return New(ErrUnavailable, http.StatusServiceUnavailable, msg, cause)
}

func Internal(msg string, cause error) *Error {
	return New(ErrInternal, http.StatusInternalServerError, msg, cause)
}

// Wrap 包装现有错误；若已是 *Error 则保留其类型
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := FromError(err); ok {
		return New(e.Type, e.Code, msg, err)
	}
	return New(errType, int(errType), msg, err)
}

// FromError 沿错误链查找 *Error
func FromError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// TypeOf 返回错误链中第一个 *Error 的类型
func TypeOf(err error) ErrorType {
	if e, ok := FromError(err); ok {
		return e.Type
	}
	return ErrUnknown
}

func IsInvalidArg(err error) bool { return TypeOf(err) == ErrInvalidArg }
func IsDomain(err error) bool     { return TypeOf(err) == ErrDomain }
func IsNotFound(err error) bool   { return TypeOf(err) == ErrNotFound }

// --- 协议转换 ---

// HTTPStatus 映射 HTTP 状态码
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case ErrInvalidArg:
		return http.StatusBadRequest
	case ErrDomain:
		return http.StatusUnprocessableEntity
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrLimitExceeded:
		return http.StatusTooManyRequests
	case ErrDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode 映射 gRPC 状态码
func (e *Error) GRPCCode() codes.Code {
	switch e.Type {
	case ErrInvalidArg:
		return codes.InvalidArgument
	case ErrDomain:
		return codes.OutOfRange
	case ErrNotFound:
		return codes.NotFound
	case ErrUnavailable:
		return codes.Unavailable
	case ErrLimitExceeded:
		return codes.ResourceExhausted
	case ErrDeadlineExceeded:
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// ToGRPCStatus 转换为 gRPC Status
func (e *Error) ToGRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Message)
}

// ToGRPCError 将任意错误转换为 gRPC 错误
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := FromError(err); ok {
		return e.ToGRPCStatus().Err()
	}
	return status.Error(codes.Internal, err.Error())
}
