package ratelimit

import "time"

// Decision is the outcome of one Take call.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the caller should wait before the next token, zero when Allowed.
	RetryAfter time.Duration
}

// Limiter hands out request tokens per key.
type Limiter interface {
	Take(key string) Decision
}

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Unlimited admits every request.
type Unlimited struct{}

// Take always allows.
func (Unlimited) Take(string) Decision { return Decision{Allowed: true} }
