// Package geoindex keeps available courier positions in a Redis GEO set so the
// candidate pool can be narrowed to the area around a pickup.
package geoindex

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"local-dispatch/internal/domain"
)

const (
	geoKey  = "dispatch:couriers:geo"
	seenKey = "dispatch:couriers:seen"
)

// Index is a Redis-backed courier location index.
type Index struct {
	redis    redis.Cmdable
	radiusKm float64
}

// New creates an Index. Searches around a pickup are bounded by radiusKm
// (50 km when not positive).
func New(client redis.Cmdable, radiusKm float64) *Index {
	if radiusKm <= 0 {
		radiusKm = 50
	}
	return &Index{redis: client, radiusKm: radiusKm}
}

// Upsert records the courier position. Unavailable couriers are removed instead.
func (i *Index) Upsert(ctx context.Context, c domain.CourierCandidate) error {
	if !c.Available {
		return i.Remove(ctx, c.CourierID)
	}
	pipe := i.redis.TxPipeline()
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      c.CourierID,
		Longitude: c.Location.Lng,
		Latitude:  c.Location.Lat,
	})
	pipe.ZAdd(ctx, seenKey, redis.Z{Score: float64(c.LocationUpdatedAt.UnixMilli()), Member: c.CourierID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("geoindex upsert %q: %w", c.CourierID, err)
	}
	return nil
}

// Remove drops the courier from the index.
func (i *Index) Remove(ctx context.Context, courierID string) error {
	pipe := i.redis.TxPipeline()
	pipe.ZRem(ctx, geoKey, courierID)
	pipe.ZRem(ctx, seenKey, courierID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("geoindex remove %q: %w", courierID, err)
	}
	return nil
}

// AvailableCouriers returns indexed couriers, limited to the search radius around
// near when it is set.
func (i *Index) AvailableCouriers(ctx context.Context, near *domain.Location) ([]domain.CourierCandidate, error) {
	var locs []redis.GeoLocation
	if near != nil {
		found, err := i.redis.GeoSearchLocation(ctx, geoKey, &redis.GeoSearchLocationQuery{
			GeoSearchQuery: redis.GeoSearchQuery{
				Longitude:  near.Lng,
				Latitude:   near.Lat,
				Radius:     i.radiusKm,
				RadiusUnit: "km",
				Sort:       "ASC",
			},
			WithCoord: true,
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("geoindex search: %w", err)
		}
		locs = found
	} else {
		all, err := i.all(ctx)
		if err != nil {
			return nil, err
		}
		locs = all
	}
	if len(locs) == 0 {
		return []domain.CourierCandidate{}, nil
	}

	names := make([]string, len(locs))
	for k, l := range locs {
		names[k] = l.Name
	}
	scores, err := i.redis.ZMScore(ctx, seenKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("geoindex freshness: %w", err)
	}

	out := make([]domain.CourierCandidate, 0, len(locs))
	for k, l := range locs {
		c := domain.CourierCandidate{
			CourierID: l.Name,
			Location:  domain.Location{Lat: l.Latitude, Lng: l.Longitude},
			Available: true,
		}
		if k < len(scores) && scores[k] > 0 {
			c.LocationUpdatedAt = time.UnixMilli(int64(scores[k])).UTC()
		}
		out = append(out, c)
	}
	return out, nil
}

func (i *Index) all(ctx context.Context) ([]redis.GeoLocation, error) {
	names, err := i.redis.ZRange(ctx, geoKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("geoindex list: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	positions, err := i.redis.GeoPos(ctx, geoKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("geoindex positions: %w", err)
	}
	out := make([]redis.GeoLocation, 0, len(names))
	for k, p := range positions {
		if p == nil {
			continue
		}
		out = append(out, redis.GeoLocation{Name: names[k], Longitude: p.Longitude, Latitude: p.Latitude})
	}
	return out, nil
}
