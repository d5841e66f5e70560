package locationsync_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	firebaseapp "local-dispatch/internal/gateway/firebase"
	"local-dispatch/internal/service/locationsync"
)

type stubFeed struct {
	entries map[string]firebaseapp.LocationEntry
	err     error
}

func (f stubFeed) Online(context.Context) (map[string]firebaseapp.LocationEntry, error) {
	return f.entries, f.err
}

type stubWriter struct {
	mu      sync.Mutex
	updates []domain.LocationUpdate
	actors  []domain.Actor
	fn      func(u domain.LocationUpdate) (bool, error)
}

func (w *stubWriter) UpdateLocation(_ context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error) {
	w.mu.Lock()
	w.updates = append(w.updates, u)
	w.actors = append(w.actors, actor)
	w.mu.Unlock()
	if w.fn != nil {
		return w.fn(u)
	}
	return true, nil
}

func TestSyncOnce(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	feed := stubFeed{entries: map[string]firebaseapp.LocationEntry{
		"c-2":     {Lat: 19.41, Lng: -99.16, Status: "online", Timestamp: ts.UnixMilli()},
		"c-1":     {Lat: 19.43, Lng: -99.13, Status: "online", Timestamp: ts.UnixMilli()},
		"no-ts":   {Lat: 19.43, Lng: -99.13, Status: "online"},
		"ghost":   {Lat: 19.43, Lng: -99.13, Status: "online", Timestamp: ts.UnixMilli()},
		"stale-1": {Lat: 19.43, Lng: -99.13, Status: "online", Timestamp: ts.UnixMilli()},
	}}
	w := &stubWriter{fn: func(u domain.LocationUpdate) (bool, error) {
		switch u.CourierID {
		case "ghost":
			return false, apperr.ErrNotFound
		case "stale-1":
			return false, nil
		}
		return true, nil
	}}

	st, err := locationsync.New(feed, w, 0, nil).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, locationsync.Stats{Seen: 5, Applied: 2, Skipped: 3}, st)

	require.Len(t, w.updates, 4)
	assert.Equal(t, "c-1", w.updates[0].CourierID)
	assert.Equal(t, ts, w.updates[0].ReportedAt)
	assert.Equal(t, domain.Location{Lat: 19.43, Lng: -99.13}, w.updates[0].Location)
	for _, a := range w.actors {
		assert.Equal(t, domain.SystemActor, a)
	}
}

func TestSyncOnce_Errors(t *testing.T) {
	t.Parallel()

	_, err := locationsync.New(stubFeed{err: errors.New("rtdb down")}, &stubWriter{}, 0, nil).SyncOnce(context.Background())
	require.EqualError(t, err, "rtdb down")

	feed := stubFeed{entries: map[string]firebaseapp.LocationEntry{"c-1": {Lat: 1, Lng: 1, Timestamp: 1}}}
	w := &stubWriter{fn: func(domain.LocationUpdate) (bool, error) { return false, errors.New("db down") }}
	_, err = locationsync.New(feed, w, 0, nil).SyncOnce(context.Background())
	require.EqualError(t, err, "db down")
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	w := &stubWriter{fn: func(domain.LocationUpdate) (bool, error) {
		cancel()
		return true, nil
	}}
	feed := stubFeed{entries: map[string]firebaseapp.LocationEntry{"c-1": {Lat: 1, Lng: 1, Timestamp: 1}}}

	err := locationsync.New(feed, w, time.Hour, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, w.updates, 1)
}
