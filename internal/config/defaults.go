package config

import "time"

const (
	defaultPort                 = 8080
	defaultLogLevel             = "info"
	defaultOperationTimeout     = 3 * time.Second
	defaultLocationsPath        = "courier_locations"
	defaultPubSubTopic          = "order-notifications"
	defaultLocationSyncInterval = 15 * time.Second
)

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch",

	AutoMigrate: true,
}

var defaultKafka = Kafka{
	GroupID:            "local-dispatch",
	OrdersTopic:        "orders.events",
	NotificationsTopic: "notifications",
}

var defaultRedis = Redis{
	GeoRadiusKm: 50,
}

var defaultDispatch = Dispatch{
	PoolSource:         PoolSourcePostgres,
	MaxAttempts:        3,
	StaleAfter:         5 * time.Minute,
	RedispatchAfter:    2 * time.Minute,
	RedispatchInterval: 30 * time.Second,
	BatchSize:          50,
}

var defaultNotify = Notify{
	Sink:        SinkLog,
	SendTimeout: 5 * time.Second,
	Concurrency: 4,
	QueueSize:   256,
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       20,
	Burst:      40,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultKafka returns the default Kafka settings. Brokers are empty, so Kafka is off.
func DefaultKafka() Kafka {
	return defaultKafka
}

// DefaultRedis returns the default Redis settings.
func DefaultRedis() Redis {
	return defaultRedis
}

// DefaultDispatch returns the default dispatch settings.
func DefaultDispatch() Dispatch {
	return defaultDispatch
}

// DefaultNotify returns the default notification settings.
func DefaultNotify() Notify {
	return defaultNotify
}

// DefaultRateLimit returns the default rate limit settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}
