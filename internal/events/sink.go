package events

import (
	"context"
	"errors"
	"log/slog"

	"OxyGent-Console/pkg/logger"
)

// AuditSink 返回一个将事件写入审计日志的 Handler。
func AuditSink(log *slog.Logger) Handler {
	if log == nil {
		log = logger.Audit()
	}
	return func(ctx context.Context, event Event) error {
		log.InfoContext(ctx, "resource_event",
			slog.String("event_id", event.ID),
			slog.String("kind", event.Kind),
			slog.String("action", string(event.Action)),
			slog.String("resource_id", event.ResourceID),
			slog.String("name", event.Name),
			slog.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}

// PublishQuietly 投递事件，失败时只记录日志。事件投递不影响资源操作本身的结果。
func PublishQuietly(ctx context.Context, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.L().Warn("资源事件投递失败",
			slog.Any("error", err),
			slog.String("kind", event.Kind),
			slog.String("action", string(event.Action)),
			slog.String("resource_id", event.ResourceID),
		)
	}
}

// Chain 依次调用多个 Handler，返回遇到的全部错误。
func Chain(handlers ...Handler) Handler {
	return func(ctx context.Context, event Event) error {
		var errs []error
		for _, h := range handlers {
			if h == nil {
				continue
			}
			if err := h(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
