package app

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"local-dispatch/internal/config"
	"local-dispatch/internal/events"
	firebaseapp "local-dispatch/internal/gateway/firebase"
	notifier "local-dispatch/internal/gateway/notify"
	"local-dispatch/internal/geoindex"
	"local-dispatch/internal/identity"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
	"local-dispatch/internal/service/notify"
)

// sinkCloser releases the notification transport. It may be nil.
type sinkCloser func() error

func registerInfra(container *dig.Container) error {
	return provideAll(container,
		provideMetrics,
		provideRedis,
		provideGeoIndex,
		provideFirebaseApp,
		provideVerifier,
		provideSink,
		provideFanout,
		func(cfg *config.Config, logger logx.Logger) *events.Bus {
			return events.NewAsyncBus(logger, cfg.Notify.QueueSize)
		},
	)
}

// provideRedis returns nil when no Redis address is configured.
func provideRedis(ctx context.Context, cfg *config.Config, logger logx.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("redis connected", logx.String("addr", cfg.Redis.Addr))
	return client, nil
}

func provideGeoIndex(cfg *config.Config, client *redis.Client) *geoindex.Index {
	if client == nil {
		return nil
	}
	return geoindex.New(client, cfg.Redis.GeoRadiusKm)
}

// provideFirebaseApp returns nil when no Firebase project is configured.
func provideFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	if cfg.Firebase.ProjectID == "" && cfg.Firebase.DatabaseURL == "" {
		return nil, nil
	}
	return firebaseapp.New(ctx, firebaseapp.Config{
		ProjectID:       cfg.Firebase.ProjectID,
		DatabaseURL:     cfg.Firebase.DatabaseURL,
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
}

func provideVerifier(ctx context.Context, cfg *config.Config, fb *firebase.App) (identity.Verifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthFirebase:
		if fb == nil {
			return nil, fmt.Errorf("firebase auth: app is not configured")
		}
		client, err := fb.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase auth: %w", err)
		}
		return identity.NewFirebaseVerifier(client), nil
	default:
		return identity.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
}

type sinkOut struct {
	dig.Out

	Sink   notify.Sink
	Closer sinkCloser
}

type sinkIn struct {
	dig.In

	Ctx      context.Context
	Cfg      *config.Config
	Logger   logx.Logger
	Firebase *firebase.App      `optional:"true"`
	Retries  prometheus.Counter `name:"notification_sink_retries_total"`
}

// provideSink builds the configured transport and wraps it with retries.
// The log sink is never retried.
func provideSink(in sinkIn) (sinkOut, error) {
	var (
		sink   notify.Sink
		closer sinkCloser
	)
	switch in.Cfg.Notify.Sink {
	case config.SinkFCM:
		if in.Firebase == nil {
			return sinkOut{}, fmt.Errorf("fcm sink: firebase app is not configured")
		}
		client, err := in.Firebase.Messaging(in.Ctx)
		if err != nil {
			return sinkOut{}, fmt.Errorf("fcm sink: %w", err)
		}
		sink = notifier.NewFCMSink(client)
	case config.SinkPubSub:
		s, err := notifier.NewPubSubSink(in.Ctx, in.Cfg.PubSub.ProjectID, in.Cfg.PubSub.TopicID, in.Logger)
		if err != nil {
			return sinkOut{}, fmt.Errorf("pubsub sink: %w", err)
		}
		sink, closer = s, s.Close
	case config.SinkKafka:
		s, err := notifier.NewKafkaSink(in.Cfg.Kafka.Brokers, in.Cfg.Kafka.NotificationsTopic)
		if err != nil {
			return sinkOut{}, fmt.Errorf("kafka sink: %w", err)
		}
		sink, closer = s, s.Close
	default:
		return sinkOut{Sink: notifier.NewLogSink(in.Logger)}, nil
	}

	in.Logger.Info("notification sink ready", logx.String("sink", in.Cfg.Notify.Sink))
	return sinkOut{
		Sink: notify.NewRetryingSink(sink, in.Logger, in.Retries, notify.RetryConfig{
			MaxAttempts: in.Cfg.Notify.MaxAttempts,
			BaseDelay:   in.Cfg.Notify.BaseDelay,
			MaxDelay:    in.Cfg.Notify.MaxDelay,
		}),
		Closer: closer,
	}, nil
}

func provideFanout(cfg *config.Config, sink notify.Sink, logger logx.Logger, m *metrics.Notifications) *notify.Fanout {
	return notify.NewFanout(sink, notify.FanoutConfig{
		SendTimeout: cfg.Notify.SendTimeout,
		Concurrency: cfg.Notify.Concurrency,
	}, logger, m)
}
