// Package identity turns bearer tokens into actors.
package identity

import (
	"context"
	"fmt"
	"strings"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
)

// RoleClaim is the custom claim carrying the platform role.
const RoleClaim = "role"

// Verifier resolves a bearer token to the actor it was issued to.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Actor, error)
}

func actorFromClaims(userID string, claims map[string]any) (domain.Actor, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Actor{}, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
	}
	raw, _ := claims[RoleClaim].(string)
	role := domain.Role(raw)
	if !role.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: unknown role %q", apperr.ErrUnauthorized, raw)
	}
	return domain.Actor{UserID: userID, Role: role}, nil
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored in ctx by WithActor.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(domain.Actor)
	return a, ok
}
