//go:generate mockgen -source=contracts.go -destination=courierpool_mocks_test.go -package=courierpool_test

package courierpool

import (
	"context"

	"local-dispatch/internal/domain"
)

// Source lists couriers that are currently flagged available.
// near is a hint; sources may ignore it.
type Source interface {
	AvailableCouriers(ctx context.Context, near *domain.Location) ([]domain.CourierCandidate, error)
}
