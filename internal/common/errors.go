package common

import (
	"errors"
	"fmt"
)

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// CodeOf 提取错误码；不是 AppError 时返回 ErrCodeInternal
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// 错误码常量（对应扫描失败的各种形态）
const (
	ErrCodeMissingCredential = "MISSING_CREDENTIAL" // 未配置 LLM 凭证
	ErrCodeAuthFailure       = "AUTH_FAILURE"       // 凭证无效（401 等价）
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE" // LLM 返回无法解析
	ErrCodeEmptyResult       = "EMPTY_RESULT"       // 没有候选通过验证
	ErrCodeNetworkFailure    = "NETWORK_FAILURE"
	ErrCodeStorageCorruption = "STORAGE_CORRUPTION" // 缓存 blob 损坏，按未命中处理
	ErrCodeGitHubAPI         = "GITHUB_API_ERROR"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
