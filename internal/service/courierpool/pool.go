// Package courierpool builds the candidate set a dispatch cycle chooses from.
package courierpool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/geo"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
)

// Exclusion reasons.
const (
	ReasonStale       = "stale_location"
	ReasonOutOfRange  = "out_of_range"
	ReasonNoLocation  = "no_location"
	ReasonUnavailable = "unavailable"
)

// Config bounds which couriers are eligible.
type Config struct {
	StaleAfter        time.Duration
	MaxPickupRadiusKm float64
}

// Pool filters a Source into dispatch candidates.
type Pool struct {
	source  Source
	cfg     Config
	logger  logx.Logger
	metrics *metrics.Dispatch
	now     func() time.Time
}

// New creates a Pool. A non-positive StaleAfter defaults to five minutes.
func New(source Source, cfg Config, logger logx.Logger, m *metrics.Dispatch) *Pool {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Pool{
		source:  source,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListAvailable returns available couriers with a fresh location, sorted by courier id.
// When pickup is set and a radius is configured, couriers outside it are dropped.
func (p *Pool) ListAvailable(ctx context.Context, pickup *domain.Location) ([]domain.CourierCandidate, error) {
	all, err := p.source.AvailableCouriers(ctx, pickup)
	if err != nil {
		return nil, fmt.Errorf("courier pool: %w", err)
	}

	now := p.now()
	out := make([]domain.CourierCandidate, 0, len(all))
	for _, c := range all {
		if reason, ok := p.exclude(c, pickup, now); ok {
			p.metrics.Exclude(reason)
			fields := []logx.Field{
				logx.String("courier_id", c.CourierID),
				logx.String("reason", reason),
			}
			if reason == ReasonStale {
				fields = append(fields, logx.Err(apperr.ErrStaleLocation), logx.Time("location_updated_at", c.LocationUpdatedAt))
			}
			p.logger.Debug("courier excluded", fields...)
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CourierID < out[j].CourierID })
	return out, nil
}

func (p *Pool) exclude(c domain.CourierCandidate, pickup *domain.Location, now time.Time) (string, bool) {
	switch {
	case !c.Available:
		return ReasonUnavailable, true
	case !c.Location.Valid():
		return ReasonNoLocation, true
	case c.LocationUpdatedAt.IsZero() || now.Sub(c.LocationUpdatedAt) > p.cfg.StaleAfter:
		return ReasonStale, true
	case pickup != nil && !geo.WithinRadius(*pickup, c.Location, p.cfg.MaxPickupRadiusKm):
		return ReasonOutOfRange, true
	}
	return "", false
}
