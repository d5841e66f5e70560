package app

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/dig"

	"local-dispatch/internal/config"
	firebaseapp "local-dispatch/internal/gateway/firebase"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/repository"
	"local-dispatch/internal/service/courier"
	"local-dispatch/internal/service/locationsync"
	"local-dispatch/internal/service/orderflow"
	"local-dispatch/internal/service/orders"
	"local-dispatch/internal/transport/kafka"
)

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(svc *orderflow.Service, logger logx.Logger) *orders.Processor {
			return orders.NewProcessor(svc, logger)
		},
		provideConsumer,
		repository.NewChangeFeed,
		provideLocationSync,
	)
}

// provideConsumer returns nil when Kafka is not configured.
func provideConsumer(cfg *config.Config, p *orders.Processor, timeout operationTimeout, logger logx.Logger) (*kafka.Consumer, error) {
	return kafka.NewConsumer(
		logger,
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		cfg.Kafka.OrdersTopic,
		makeOrdersKafka(p, time.Duration(timeout)),
	)
}

type locationSyncIn struct {
	dig.In

	Ctx      context.Context
	Cfg      *config.Config
	Logger   logx.Logger
	Firebase *firebase.App `optional:"true"`
	Couriers *courier.Service
}

// provideLocationSync returns nil when the sync is disabled.
func provideLocationSync(in locationSyncIn) (*locationsync.Syncer, error) {
	if !in.Cfg.LocationSync.Enabled {
		return nil, nil
	}
	if in.Firebase == nil {
		return nil, fmt.Errorf("location sync: firebase app is not configured")
	}
	client, err := in.Firebase.Database(in.Ctx)
	if err != nil {
		return nil, fmt.Errorf("location sync: %w", err)
	}
	feed := firebaseapp.NewLocationFeed(client, in.Cfg.Firebase.LocationsPath)
	return locationsync.New(feed, in.Couriers, in.Cfg.LocationSync.Interval, in.Logger), nil
}
