package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/flixfeed/internal/domain"
)

// HTTPStatusError 表示 API 返回了非 2xx 的 HTTP 状态码。
// StatusMessage 取自响应体中的 status_message（若有），便于区分“key 无效”与“资源不存在”。
type HTTPStatusError struct {
	URL           string
	StatusCode    int
	StatusMessage string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	msg := strings.TrimSpace(e.StatusMessage)
	if msg == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// Error 是 provider 阶段的可追溯错误。
// 上层据此把失败归类为 fetch_failed / http_status / parse_failed 并写入日志与报告。
type Error struct {
	Provider string // provider name（小写）
	Stage    string // "fetch" 或 "parse"
	Endpoint string // 例如 "/movie/popular"
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s endpoint=%s: %v", e.Provider, e.Stage, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrInvalidInput 表示调用方传入了无法请求的参数（例如空的 movie id）。
var ErrInvalidInput = errors.New("invalid input")

// Kind 把任意错误映射为结构化的错误类别（domain.ErrCode*）。
// err 为 nil 时返回空串。
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInvalidInput) {
		return domain.ErrCodeInvalidInput
	}
	var hs *HTTPStatusError
	if errors.As(err, &hs) {
		return domain.ErrCodeHTTPStatus
	}
	var pe *Error
	if errors.As(err, &pe) && pe.Stage == "parse" {
		return domain.ErrCodeParseFailed
	}
	return domain.ErrCodeFetchFailed
}

// Describe 给出面向人的错误说明（尽量可操作）。
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var hs *HTTPStatusError
	if errors.As(err, &hs) {
		switch hs.StatusCode {
		case 401:
			return fmt.Sprintf("API 返回 HTTP 401（api_key 无效或缺失）：%s", strings.TrimSpace(hs.StatusMessage))
		case 404:
			return "API 返回 HTTP 404（资源不存在）"
		case 429:
			return "API 返回 HTTP 429（触发限流）。建议配置 rate_limit 或降低 concurrency。"
		default:
			return hs.Error()
		}
	}

	low := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(low, "timeout") {
		return "请求超时。建议检查网络/代理，或调大 timeout。"
	}
	if errors.Is(err, context.Canceled) {
		return "请求已取消"
	}
	return err.Error()
}
