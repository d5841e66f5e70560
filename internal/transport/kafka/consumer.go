package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"local-dispatch/internal/logx"
	"local-dispatch/internal/service/orders"
)

// HandleFunc processes a single orders.Event from Kafka
type HandleFunc func(context.Context, orders.Event) error

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a Sarama consumer group and dispatches events to a handler
type Consumer struct {
	group      sarama.ConsumerGroup
	topic      string
	handler    HandleFunc
	logger     logx.Logger
	retryDelay time.Duration
}

// NewConsumer creates a new Kafka consumer. It returns nil when Kafka is not configured.
func NewConsumer(logger logx.Logger, brokers []string, groupID, topic string, h HandleFunc) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logx.Nop()
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:      group,
		topic:      topic,
		handler:    h,
		logger:     logger.With(logx.String("topic", topic)),
		retryDelay: time.Second,
	}, nil
}

// Run consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// errUndecodable marks messages that can never become an order event.
var errUndecodable = errors.New("undecodable order event")

func decode(msg *sarama.ConsumerMessage) (orders.Event, error) {
	var dto EventDTO
	if err := json.Unmarshal(msg.Value, &dto); err != nil {
		return orders.Event{}, fmt.Errorf("%w: %s", errUndecodable, err.Error())
	}
	ev := ToDomain(dto)
	if ev.OrderID == "" {
		return orders.Event{}, fmt.Errorf("%w: order_id is empty", errUndecodable)
	}
	return ev, nil
}

// ConsumeClaim commits an offset once its event is handled or can never be handled.
// Any other handler error ends the claim so the group redelivers from the last commit.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		log := h.c.logger.With(
			logx.Int("partition", int(msg.Partition)),
			logx.Int64("offset", msg.Offset),
		)

		ev, err := decode(msg)
		if err != nil {
			log.Warn("order event dropped", logx.Err(err))
			sess.MarkMessage(msg, "")
			continue
		}

		log = log.With(logx.String("order_id", ev.OrderID), logx.String("event_type", ev.Type))
		err = h.c.handler(sess.Context(), ev)
		switch {
		case err == nil:
		case errors.Is(err, ErrPermanent):
			log.Warn("order event rejected", logx.Err(err))
		default:
			log.Error("order event failed, awaiting redelivery", logx.Err(err))
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
