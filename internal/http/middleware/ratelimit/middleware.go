package ratelimit

import (
	"io"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"local-dispatch/internal/identity"
	"local-dispatch/internal/logx"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests whose bucket is empty with 429.
type Middleware struct {
	logger  logx.Logger
	denied  prometheus.Counter
	limiter Limiter
	key     KeyFunc
}

// New creates a Middleware charging requests to ActorOrIP.
func New(logger logx.Logger, denied prometheus.Counter, limiter Limiter) *Middleware {
	if logger == nil {
		logger = logx.Nop()
	}
	if limiter == nil {
		limiter = Unlimited{}
	}
	return &Middleware{logger: logger, denied: denied, limiter: limiter, key: ActorOrIP}
}

// WithKey replaces the key function.
func (m *Middleware) WithKey(fn KeyFunc) *Middleware {
	if fn != nil {
		m.key = fn
	}
	return m
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.key(r)
			d := m.limiter.Take(key)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if m.denied != nil {
				m.denied.Inc()
			}
			m.logger.Warn("request throttled",
				logx.String("key", key),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Duration("retry_after", d.RetryAfter),
			)

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfterSeconds(d))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := io.WriteString(w, `{"error":"too many requests"}`); err != nil {
				m.logger.Debug("throttle response write failed", logx.String("key", key), logx.Err(err))
			}
		})
	}
}

// ActorOrIP charges authenticated requests to the actor and the rest to the client address.
func ActorOrIP(r *http.Request) string {
	if a, ok := identity.ActorFrom(r.Context()); ok && a.UserID != "" {
		return "actor:" + a.UserID
	}
	return "ip:" + remoteHost(r.RemoteAddr)
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(d Decision) string {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
