package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/John-Robertt/flixfeed/internal/domain"
)

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"http status", &Error{Provider: "tmdb", Stage: "fetch", Endpoint: "/movie/popular", Err: &HTTPStatusError{StatusCode: 401}}, domain.ErrCodeHTTPStatus},
		{"parse", &Error{Provider: "tmdb", Stage: "parse", Endpoint: "/movie/1/videos", Err: errors.New("bad json")}, domain.ErrCodeParseFailed},
		{"fetch", &Error{Provider: "tmdb", Stage: "fetch", Err: context.DeadlineExceeded}, domain.ErrCodeFetchFailed},
		{"invalid", fmt.Errorf("movie id 不能为空：%w", ErrInvalidInput), domain.ErrCodeInvalidInput},
		{"plain", errors.New("boom"), domain.ErrCodeFetchFailed},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("%s：期望 %q，实际 %q", tc.name, tc.want, got)
		}
	}
}

func TestHTTPStatusError_Message(t *testing.T) {
	e := &HTTPStatusError{StatusCode: 401, StatusMessage: "Invalid API key: You must be granted a valid key."}
	if e.Error() != "HTTP 401: Invalid API key: You must be granted a valid key." {
		t.Fatalf("错误信息不符合预期：%q", e.Error())
	}
	if (&HTTPStatusError{StatusCode: 500}).Error() != "HTTP 500" {
		t.Fatalf("无 status_message 时应只输出状态码")
	}
}

func TestDescribe_Timeout(t *testing.T) {
	err := &Error{Provider: "tmdb", Stage: "fetch", Err: context.DeadlineExceeded}
	if got := Describe(err); got == "" || got == err.Error() {
		t.Fatalf("超时应给出可操作提示，实际：%q", got)
	}
}
