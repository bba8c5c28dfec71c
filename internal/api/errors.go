package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/observability/alerting"
)

// errorBody 是所有错误响应的结构。
type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// statusOf 把统一错误码映射为 HTTP 状态码。
func statusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch xerrors.CodeOf(err) {
	case xerrors.CodeNotFound:
		return http.StatusNotFound
	case xerrors.CodeConflict, xerrors.CodeInvalidArgument, xerrors.CodeFailedPrecondition:
		return http.StatusBadRequest
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case xerrors.CodeInitializationFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detailOf 返回对调用方可见的错误描述，不包含底层原因。
func detailOf(err error) string {
	if e, ok := xerrors.From(err); ok {
		return e.Message()
	}
	return "Internal server error"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	code := xerrors.CodeOf(err)
	if status == http.StatusGatewayTimeout {
		code = xerrors.CodeTimeout
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "请求处理失败",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", requestIDFrom(r.Context())),
			slog.Any("error", err),
		)
		if s.alerts != nil {
			event := alerting.FromError(err, r.Method, r.URL.Path, requestIDFrom(r.Context()))
			if notifyErr := s.alerts.Notify(r.Context(), event); notifyErr != nil {
				s.log.Warn("告警投递失败", slog.Any("error", notifyErr))
			}
		}
	}
	writeJSON(w, status, errorBody{Detail: detailOf(err), Code: string(code)})
}
