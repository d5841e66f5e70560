// Package events is the in-process observer registry for committed order events.
package events

import (
	"context"
	"sync"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// Handler reacts to a committed order event.
type Handler func(ctx context.Context, ev domain.OrderEvent) error

type subscription struct {
	id   uint64
	name string
	fn   Handler
}

// Bus fans committed events out to subscribers. Handler errors are logged and
// never reach the publisher.
type Bus struct {
	logger logx.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   []subscription

	queue chan queued
}

type queued struct {
	ctx context.Context
	ev  domain.OrderEvent
}

// NewBus returns a bus that runs handlers on the publishing goroutine.
func NewBus(logger logx.Logger) *Bus {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Bus{logger: logger}
}

// NewAsyncBus returns a bus that queues events for Run. When the queue is full
// Publish falls back to delivering on the caller's goroutine.
func NewAsyncBus(logger logx.Logger, size int) *Bus {
	b := NewBus(logger)
	if size <= 0 {
		size = 256
	}
	b.queue = make(chan queued, size)
	return b
}

// Subscribe registers fn under name and returns a function removing it.
func (b *Bus) Subscribe(name string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, name: name, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish hands ev to every subscriber.
func (b *Bus) Publish(ctx context.Context, ev domain.OrderEvent) {
	// the request context usually ends before async handlers run
	ctx = context.WithoutCancel(ctx)
	if b.queue != nil {
		select {
		case b.queue <- queued{ctx: ctx, ev: ev}:
			return
		default:
			b.logger.Warn("event queue full, delivering inline",
				logx.String("event_id", ev.ID),
				logx.String("order_id", ev.OrderID),
			)
		}
	}
	b.deliver(ctx, ev)
}

// Run drains the async queue until ctx is done, then delivers what is left.
func (b *Bus) Run(ctx context.Context) error {
	if b.queue == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case q := <-b.queue:
			b.deliver(q.ctx, q.ev)
		case <-ctx.Done():
			b.drain()
			return ctx.Err()
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case q := <-b.queue:
			b.deliver(q.ctx, q.ev)
		default:
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, ev domain.OrderEvent) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.fn(ctx, ev); err != nil {
			b.logger.Warn("event handler failed",
				logx.String("subscriber", s.name),
				logx.String("event_id", ev.ID),
				logx.String("kind", string(ev.Kind)),
				logx.String("order_id", ev.OrderID),
				logx.Err(err),
			)
		}
	}
}
