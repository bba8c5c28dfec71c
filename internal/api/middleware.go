package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"OxyGent-Console/internal/observability/metrics"
	"OxyGent-Console/pkg/logger"
)

// RequestIDHeader 是请求 ID 的头部名称。
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "服务已关闭", Code: "INITIALIZATION_FAILURE"})
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}

// withRequestID 沿用调用方提供的请求 ID，缺失时生成 UUID。
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// withBodyLimit 限制请求体大小：multipart 上传使用 uploadLimit，其他请求使用 bodyLimit。
func withBodyLimit(bodyLimit, uploadLimit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			limit := bodyLimit
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
				limit = uploadLimit
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// withAccessLog 记录访问日志，成功的写操作同时写入审计日志。
func withAccessLog(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.Status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestIDFrom(r.Context())),
		}
		log.InfoContext(r.Context(), "http_request", attrs...)
		if r.Method != http.MethodGet && r.Method != http.MethodHead && rec.Status < http.StatusBadRequest {
			logger.Audit().InfoContext(r.Context(), "api_mutation", attrs...)
		}
	})
}
