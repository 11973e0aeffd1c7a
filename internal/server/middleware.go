package server

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLog 为每个请求输出一行访问日志（状态码、字节数、耗时来自 httpsnoop）。
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Infof("%s %s status=%d bytes=%d dur=%s req_id=%s",
			r.Method, r.URL.RequestURI(), m.Code, m.Written, m.Duration, middleware.GetReqID(r.Context()))
	})
}
