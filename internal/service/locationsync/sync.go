// Package locationsync pulls courier positions reported by the mobile app into
// the courier store.
package locationsync

import (
	"context"
	"errors"
	"sort"
	"time"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// Syncer periodically copies online courier positions into the courier service.
type Syncer struct {
	feed     feed
	writer   locationWriter
	interval time.Duration
	logger   logx.Logger
}

// Stats summarises one sync pass.
type Stats struct {
	Seen    int
	Applied int
	Skipped int
}

// New creates a Syncer. interval defaults to 15s.
func New(f feed, w locationWriter, interval time.Duration, logger logx.Logger) *Syncer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Syncer{feed: f, writer: w, interval: interval, logger: logger}
}

// Run syncs on every tick until ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SyncOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("location sync failed", logx.Err(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SyncOnce reads the feed once and writes every valid entry.
// Unknown couriers and out-of-order reports are skipped.
func (s *Syncer) SyncOnce(ctx context.Context) (Stats, error) {
	entries, err := s.feed.Online(ctx)
	if err != nil {
		return Stats{}, err
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var st Stats
	for _, id := range ids {
		e := entries[id]
		st.Seen++
		if e.Timestamp <= 0 {
			st.Skipped++
			continue
		}
		u := domain.LocationUpdate{
			CourierID:  id,
			Location:   domain.Location{Lat: e.Lat, Lng: e.Lng},
			ReportedAt: time.UnixMilli(e.Timestamp).UTC(),
		}
		applied, err := s.writer.UpdateLocation(ctx, u, domain.SystemActor)
		switch {
		case err == nil && applied:
			st.Applied++
		case err == nil, errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalid):
			st.Skipped++
			if err != nil {
				s.logger.Debug("location entry skipped", logx.String("courier_id", id), logx.Err(err))
			}
		default:
			return st, err
		}
	}

	s.logger.Debug("location sync finished",
		logx.Int("seen", st.Seen),
		logx.Int("applied", st.Applied),
		logx.Int("skipped", st.Skipped),
	)
	return st, nil
}
