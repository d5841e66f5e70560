package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Config stores BucketLimiter settings.
type Config struct {
	Rate       float64       // tokens per second
	Burst      int           // bucket capacity
	TTL        time.Duration // idle buckets older than this are dropped, 0 keeps them
	MaxBuckets int           // 0 means unbounded
}

// BucketLimiter keeps one token bucket per key.
// When MaxBuckets is reached the least recently seen bucket is evicted,
// so a burst of new keys never locks out everyone else.
type BucketLimiter struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	tokens float64
	filled time.Time
	seen   time.Time
}

// NewBucketLimiter creates a limiter, clamping nonsensical settings.
func NewBucketLimiter(clock Clock, cfg Config) *BucketLimiter {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &BucketLimiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Take spends one token of key's bucket if there is one.
func (l *BucketLimiter) Take(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
			l.evictOldest()
		}
		b = &bucket{tokens: float64(l.cfg.Burst), filled: now}
		l.buckets[key] = b
	}
	b.seen = now

	if elapsed := now.Sub(b.filled); elapsed > 0 {
		b.tokens = math.Min(float64(l.cfg.Burst), b.tokens+elapsed.Seconds()*l.cfg.Rate)
		b.filled = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true}
	}
	missing := 1 - b.tokens
	wait := time.Duration(math.Ceil(missing / l.cfg.Rate * float64(time.Second)))
	return Decision{RetryAfter: wait}
}

// Len reports how many buckets are tracked.
func (l *BucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *BucketLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, b := range l.buckets {
		if oldestKey == "" || b.seen.Before(oldest) {
			oldestKey, oldest = k, b.seen
		}
	}
	delete(l.buckets, oldestKey)
}

// sweep drops idle buckets at most once per half TTL.
func (l *BucketLimiter) sweep(now time.Time) {
	if l.cfg.TTL <= 0 || now.Before(l.nextSweep) {
		return
	}
	l.nextSweep = now.Add(l.cfg.TTL / 2)
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}
