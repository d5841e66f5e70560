package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
)

// Sink delivers one notification.
type Sink interface {
	Send(ctx context.Context, n domain.Notification) error
}

// FanoutConfig bounds delivery.
type FanoutConfig struct {
	SendTimeout time.Duration
	Concurrency int
}

// Fanout plans notifications for an event and sends them concurrently.
// Delivery is best-effort: failures are logged and counted.
type Fanout struct {
	sink    Sink
	cfg     FanoutConfig
	logger  logx.Logger
	metrics *metrics.Notifications
}

// NewFanout creates a Fanout.
func NewFanout(sink Sink, cfg FanoutConfig, logger logx.Logger, m *metrics.Notifications) *Fanout {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Fanout{sink: sink, cfg: cfg, logger: logger, metrics: m}
}

// Handle plans and sends the notifications of ev. The returned error, if any,
// wraps apperr.ErrNotificationDeliveryFailed and lists every failed send.
func (f *Fanout) Handle(ctx context.Context, ev domain.OrderEvent) error {
	planned := Plan(ev)
	if len(planned) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for _, n := range planned {
		n := n
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(gctx, f.cfg.SendTimeout)
			defer cancel()

			if err := f.sink.Send(sendCtx, n); err != nil {
				f.metrics.Sent(string(n.Channel), "failed")
				f.logger.Warn("notification not delivered",
					logx.String("event", "notification_failed"),
					logx.String("notification_id", n.ID),
					logx.String("order_id", n.OrderID),
					logx.String("recipient_id", n.RecipientID),
					logx.String("channel", string(n.Channel)),
					logx.Err(err),
				)
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s to %s: %w", n.Type, n.RecipientID, err))
				mu.Unlock()
				return nil
			}
			f.metrics.Sent(string(n.Channel), "ok")
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return fmt.Errorf("%w: %w", apperr.ErrNotificationDeliveryFailed, errors.Join(failures...))
	}
	f.logger.Debug("notifications sent",
		logx.String("order_id", ev.OrderID),
		logx.String("kind", string(ev.Kind)),
		logx.Int("count", len(planned)),
	)
	return nil
}
