package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// ChangeFeed delivers committed order changes published by TxRepo.PublishChange.
type ChangeFeed struct {
	db     *pgxpool.Pool
	logger logx.Logger
}

// NewChangeFeed creates a new ChangeFeed.
func NewChangeFeed(db *pgxpool.Pool, logger logx.Logger) *ChangeFeed {
	return &ChangeFeed{db: db, logger: logger}
}

// Listen holds one pool connection and calls fn for every change until ctx is done.
// Undecodable payloads are logged and skipped. An error from fn is logged, not returned.
func (f *ChangeFeed) Listen(ctx context.Context, fn func(context.Context, domain.OrderChange) error) error {
	conn, err := f.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}
	f.logger.Info("order change feed listening", logx.String("channel", ChangeChannel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		var change domain.OrderChange
		if err := json.Unmarshal([]byte(n.Payload), &change); err != nil {
			f.logger.Warn("order change feed bad payload", logx.String("payload", n.Payload), logx.Err(err))
			continue
		}
		if err := fn(ctx, change); err != nil {
			f.logger.Warn("order change handler failed",
				logx.String("order_id", change.OrderID),
				logx.String("to", string(change.To)),
				logx.Err(err),
			)
		}
	}
}
