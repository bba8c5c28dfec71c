package metrics

import (
	"context"
	"net/http"
	"time"

	"OxyGent-Console/internal/events"
)

// StatusRecorder 记录处理器写出的状态码。
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// WriteHeader 实现 http.ResponseWriter。
func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap 供 http.ResponseController 访问底层 ResponseWriter。
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware 按路由模式统计请求。未匹配任何路由的请求归入 "unmatched"。
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec, ok := w.(*StatusRecorder)
		if !ok {
			rec = &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		}
		next.ServeHTTP(rec, r)
		handler := r.Pattern
		if handler == "" {
			handler = "unmatched"
		}
		c.ObserveHTTPRequest(handler, r.Method, rec.Status, time.Since(start))
	})
}

// EventHandler 返回统计资源事件的 events.Handler。
func (c *Collector) EventHandler() events.Handler {
	return func(_ context.Context, event events.Event) error {
		c.ObserveEvent(event.Kind, string(event.Action))
		return nil
	}
}
