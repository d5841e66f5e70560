package notifier

import (
	"context"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// LogSink only logs notifications. Used when no transport is configured.
type LogSink struct {
	logger logx.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger logx.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs n.
func (s *LogSink) Send(_ context.Context, n domain.Notification) error {
	s.logger.Info("notification",
		logx.String("event", "notification_logged"),
		logx.String("notification_id", n.ID),
		logx.String("recipient_id", n.RecipientID),
		logx.String("channel", string(n.Channel)),
		logx.String("type", string(n.Type)),
		logx.String("order_id", n.OrderID),
		logx.String("message", n.Message),
	)
	return nil
}
