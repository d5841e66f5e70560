package courier

import (
	"context"

	"local-dispatch/internal/domain"
)

// courierRepository defines storage operations required by the business layer.
type courierRepository interface {
	Get(ctx context.Context, id string) (*domain.Courier, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Courier, error)
	Create(ctx context.Context, c *domain.Courier) error
	UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
	SetAvailability(ctx context.Context, id string, available bool) (bool, error)
	UpdateLocation(ctx context.Context, u domain.LocationUpdate) (bool, error)
}

// locationIndex mirrors available courier positions for proximity search.
type locationIndex interface {
	Upsert(ctx context.Context, c domain.CourierCandidate) error
	Remove(ctx context.Context, courierID string) error
}
