package locationsync

import (
	"context"

	"local-dispatch/internal/domain"
	firebaseapp "local-dispatch/internal/gateway/firebase"
)

type feed interface {
	Online(ctx context.Context) (map[string]firebaseapp.LocationEntry, error)
}

type locationWriter interface {
	UpdateLocation(ctx context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error)
}
