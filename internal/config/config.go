package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service and worker settings.
type Config struct {
	Port             int
	LogLevel         string
	OperationTimeout time.Duration

	DB           DB
	Kafka        Kafka
	Redis        Redis
	Firebase     Firebase
	PubSub       PubSub
	Dispatch     Dispatch
	Notify       Notify
	Auth         Auth
	RateLimit    RateLimit
	Debug        Debug
	LocationSync LocationSync
}

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string

	AutoMigrate bool
}

// DSN returns the Postgres connection string.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Kafka stores broker and topic settings. Empty brokers disable Kafka.
type Kafka struct {
	Brokers            []string
	GroupID            string
	OrdersTopic        string
	NotificationsTopic string
}

// Redis stores the courier geo index connection. Empty Addr disables the index.
type Redis struct {
	Addr        string
	Password    string
	DB          int
	GeoRadiusKm float64
}

// Firebase locates the Firebase project.
type Firebase struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsFile string
	LocationsPath   string
}

// PubSub stores the notification topic.
type PubSub struct {
	ProjectID string
	TopicID   string
}

// Pool sources.
const (
	PoolSourcePostgres = "postgres"
	PoolSourceRedis    = "redis"
)

// Dispatch stores courier selection settings.
type Dispatch struct {
	PoolSource         string
	MaxAttempts        int
	StaleAfter         time.Duration
	MaxPickupRadiusKm  float64
	RedispatchAfter    time.Duration
	RedispatchInterval time.Duration
	BatchSize          int
}

// Notification sinks.
const (
	SinkLog    = "log"
	SinkFCM    = "fcm"
	SinkPubSub = "pubsub"
	SinkKafka  = "kafka"
)

// Notify stores notification delivery settings.
type Notify struct {
	Sink        string
	SendTimeout time.Duration
	Concurrency int
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Identity providers.
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// Auth selects the token verifier.
type Auth struct {
	Provider  string
	JWTSecret string
}

// RateLimit stores per-IP token bucket settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Debug stores the pprof/metrics listener. Empty Addr disables it.
type Debug struct {
	Addr string
	User string
	Pass string
}

// LocationSync stores the Firebase location pull settings.
type LocationSync struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	e := &envReader{}
	cfg := &Config{
		Port:             e.int("PORT", DefaultPort()),
		LogLevel:         e.string("LOG_LEVEL", defaultLogLevel),
		OperationTimeout: e.duration("OPERATION_TIMEOUT", defaultOperationTimeout),
	}

	db := DefaultDB()
	cfg.DB = DB{
		Host: e.string("POSTGRES_HOST", db.Host),
		Port: e.string("POSTGRES_PORT", db.Port),
		User: e.string("POSTGRES_USER", db.User),
		Pass: e.string("POSTGRES_PASSWORD", db.Pass),
		Name: e.string("POSTGRES_DB", db.Name),

		AutoMigrate: e.bool("POSTGRES_AUTO_MIGRATE", db.AutoMigrate),
	}
	if _, err := strconv.Atoi(cfg.DB.Port); err != nil {
		e.fail("POSTGRES_PORT", cfg.DB.Port)
	}

	k := DefaultKafka()
	cfg.Kafka = Kafka{
		Brokers:            e.list("KAFKA_BROKERS", k.Brokers),
		GroupID:            e.string("KAFKA_GROUP_ID", k.GroupID),
		OrdersTopic:        e.string("KAFKA_ORDERS_TOPIC", k.OrdersTopic),
		NotificationsTopic: e.string("KAFKA_NOTIFICATIONS_TOPIC", k.NotificationsTopic),
	}

	r := DefaultRedis()
	cfg.Redis = Redis{
		Addr:        e.string("REDIS_ADDR", r.Addr),
		Password:    e.string("REDIS_PASSWORD", r.Password),
		DB:          e.int("REDIS_DB", r.DB),
		GeoRadiusKm: e.float("REDIS_GEO_RADIUS_KM", r.GeoRadiusKm),
	}

	cfg.Firebase = Firebase{
		ProjectID:       e.string("FIREBASE_PROJECT_ID", ""),
		DatabaseURL:     e.string("FIREBASE_DATABASE_URL", ""),
		CredentialsFile: e.string("FIREBASE_CREDENTIALS_FILE", ""),
		LocationsPath:   e.string("FIREBASE_LOCATIONS_PATH", defaultLocationsPath),
	}
	cfg.PubSub = PubSub{
		ProjectID: e.string("PUBSUB_PROJECT_ID", cfg.Firebase.ProjectID),
		TopicID:   e.string("PUBSUB_TOPIC", defaultPubSubTopic),
	}

	d := DefaultDispatch()
	cfg.Dispatch = Dispatch{
		PoolSource:         e.string("DISPATCH_POOL_SOURCE", d.PoolSource),
		MaxAttempts:        e.int("DISPATCH_MAX_ATTEMPTS", d.MaxAttempts),
		StaleAfter:         e.duration("DISPATCH_STALE_AFTER", d.StaleAfter),
		MaxPickupRadiusKm:  e.float("DISPATCH_MAX_PICKUP_RADIUS_KM", d.MaxPickupRadiusKm),
		RedispatchAfter:    e.duration("DISPATCH_REDISPATCH_AFTER", d.RedispatchAfter),
		RedispatchInterval: e.duration("DISPATCH_REDISPATCH_INTERVAL", d.RedispatchInterval),
		BatchSize:          e.int("DISPATCH_BATCH_SIZE", d.BatchSize),
	}

	n := DefaultNotify()
	cfg.Notify = Notify{
		Sink:        e.string("NOTIFY_SINK", n.Sink),
		SendTimeout: e.duration("NOTIFY_SEND_TIMEOUT", n.SendTimeout),
		Concurrency: e.int("NOTIFY_CONCURRENCY", n.Concurrency),
		QueueSize:   e.int("NOTIFY_QUEUE_SIZE", n.QueueSize),
		MaxAttempts: e.int("NOTIFY_MAX_ATTEMPTS", n.MaxAttempts),
		BaseDelay:   e.duration("NOTIFY_BASE_DELAY", n.BaseDelay),
		MaxDelay:    e.duration("NOTIFY_MAX_DELAY", n.MaxDelay),
	}

	cfg.Auth = Auth{
		Provider:  e.string("AUTH_PROVIDER", AuthJWT),
		JWTSecret: e.string("AUTH_JWT_SECRET", ""),
	}

	rl := DefaultRateLimit()
	cfg.RateLimit = RateLimit{
		Enabled:    e.bool("RATE_LIMIT_ENABLED", rl.Enabled),
		Rate:       e.float("RATE_LIMIT_RATE", rl.Rate),
		Burst:      e.int("RATE_LIMIT_BURST", rl.Burst),
		TTL:        e.duration("RATE_LIMIT_TTL", rl.TTL),
		MaxBuckets: e.int("RATE_LIMIT_MAX_BUCKETS", rl.MaxBuckets),
	}

	cfg.Debug = Debug{
		Addr: e.string("DEBUG_ADDR", ""),
		User: e.string("DEBUG_USER", ""),
		Pass: e.string("DEBUG_PASS", ""),
	}
	cfg.LocationSync = LocationSync{
		Enabled:  e.bool("LOCATION_SYNC_ENABLED", false),
		Interval: e.duration("LOCATION_SYNC_INTERVAL", defaultLocationSyncInterval),
	}

	if err := e.err(); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.LogLevel))
	}
	switch c.Dispatch.PoolSource {
	case PoolSourcePostgres:
	case PoolSourceRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("dispatch pool source redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid dispatch pool source: %q", c.Dispatch.PoolSource))
	}
	if c.Dispatch.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("invalid dispatch max attempts: %d", c.Dispatch.MaxAttempts))
	}
	switch c.Notify.Sink {
	case SinkLog:
	case SinkFCM:
		if c.Firebase.ProjectID == "" {
			errs = append(errs, errors.New("fcm sink requires FIREBASE_PROJECT_ID"))
		}
	case SinkPubSub:
		if c.PubSub.ProjectID == "" || c.PubSub.TopicID == "" {
			errs = append(errs, errors.New("pubsub sink requires PUBSUB_PROJECT_ID and PUBSUB_TOPIC"))
		}
	case SinkKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.NotificationsTopic == "" {
			errs = append(errs, errors.New("kafka sink requires KAFKA_BROKERS and KAFKA_NOTIFICATIONS_TOPIC"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid notify sink: %q", c.Notify.Sink))
	}
	switch c.Auth.Provider {
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("jwt auth requires AUTH_JWT_SECRET"))
		}
	case AuthFirebase:
		if c.Firebase.ProjectID == "" {
			errs = append(errs, errors.New("firebase auth requires FIREBASE_PROJECT_ID"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid auth provider: %q", c.Auth.Provider))
	}
	if c.LocationSync.Enabled && c.Firebase.DatabaseURL == "" {
		errs = append(errs, errors.New("location sync requires FIREBASE_DATABASE_URL"))
	}
	return errors.Join(errs...)
}

// envReader reads typed environment values and collects parse failures.
type envReader struct {
	errs []error
}

func (e *envReader) fail(key, raw string) {
	e.errs = append(e.errs, fmt.Errorf("invalid %s: %q", key, raw))
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}

func (e *envReader) string(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, raw)
		return def
	}
	return v
}

func (e *envReader) float(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(key, raw)
		return def
	}
	return v
}

func (e *envReader) bool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(key, raw)
		return def
	}
	return v
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		e.fail(key, raw)
		return def
	}
	return v
}

func (e *envReader) list(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
