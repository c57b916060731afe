package garmin

import (
	"errors"
	"fmt"
)

// 错误类型标识，出现在错误响应 error.type 字段中
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeAuth       = "auth_error"
	ErrorTypeNotFound   = "not_found"
	ErrorTypeRateLimit  = "rate_limit_error"
	ErrorTypeAPI        = "api_error"
	ErrorTypeInternal   = "internal_error"
)

var (
	// ErrInvalidCursor 游标无法解码或内容非法
	// [注意]: 对调用方而言游标是不透明 token,任何篡改或截断都归入此错误
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrValidation 入参校验失败(limit 越界、日期区间非法等)
	ErrValidation = errors.New("validation failed")

	// ErrSerialization 响应序列化失败(循环引用、不可序列化的值)
	ErrSerialization = errors.New("response serialization failed")
)

// APIKind 上游 API 错误分类
type APIKind int

const (
	KindGeneric APIKind = iota
	KindAuth            // HTTP 401/403
	KindNotFound        // HTTP 404
	KindRateLimit       // HTTP 429
)

// APIError 上游 Garmin Connect API 调用失败
type APIError struct {
	Kind       APIKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("garmin api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("garmin api: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError 按 HTTP 状态码归类上游错误
func NewAPIError(statusCode int, message string, err error) *APIError {
	kind := KindGeneric
	switch statusCode {
	case 401, 403:
		kind = KindAuth
	case 404:
		kind = KindNotFound
	case 429:
		kind = KindRateLimit
	}
	return &APIError{Kind: kind, StatusCode: statusCode, Message: message, Err: err}
}

// NewValidationError 构造带说明的入参校验错误
func NewValidationError(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, a...))
}

// ClassifyError 将内部错误映射为错误响应的 type/message/suggestions 三元组
// [设计决策]: 统一收敛在此处,工具实现只需透传 error,不关心响应文案
func ClassifyError(err error) (errorType string, message string, suggestions []string) {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrInvalidCursor):
		return ErrorTypeValidation, err.Error(), []string{
			"Omit the cursor parameter to restart pagination from the first page",
		}
	case errors.Is(err, ErrValidation):
		return ErrorTypeValidation, err.Error(), nil
	case errors.Is(err, ErrSerialization):
		return ErrorTypeInternal, err.Error(), nil
	case errors.As(err, &apiErr):
		switch apiErr.Kind {
		case KindAuth:
			return ErrorTypeAuth, "Authentication failed. Please re-authenticate with Garmin Connect.", []string{
				"Run 'garmin-mcp auth' to refresh your credentials",
			}
		case KindNotFound:
			return ErrorTypeNotFound, apiErr.Message, []string{
				"Check the ID or date and try again",
			}
		case KindRateLimit:
			return ErrorTypeRateLimit, "Rate limit exceeded. Please wait a few minutes before trying again.", []string{
				"Wait a few minutes before retrying",
				"Reduce the request frequency",
			}
		default:
			return ErrorTypeAPI, apiErr.Message, []string{
				"Check your Garmin Connect credentials",
				"Verify your internet connection",
			}
		}
	default:
		return ErrorTypeInternal, err.Error(), nil
	}
}
