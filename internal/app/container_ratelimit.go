package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"local-dispatch/internal/config"
	"local-dispatch/internal/http/middleware/ratelimit"
	"local-dispatch/internal/logx"
)

func newRateLimiter(cfg *config.Config, clock ratelimit.Clock) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.Unlimited{}
	}
	return ratelimit.NewBucketLimiter(clock, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.SystemClock{}
}

type rateLimitIn struct {
	dig.In
	Logger  logx.Logger
	Denied  prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger, in.Denied, in.Limiter)
}
