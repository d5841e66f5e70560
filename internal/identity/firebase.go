package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens. The role comes from a custom claim.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier wraps a Firebase auth client.
func NewFirebaseVerifier(client idTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify checks the token signature and expiry with Firebase.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (domain.Actor, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %s", apperr.ErrUnauthorized, err.Error())
	}
	return actorFromClaims(t.UID, t.Claims)
}
