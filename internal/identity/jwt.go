package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
)

// JWTVerifier verifies HS256 tokens signed with a shared secret. Meant for local
// runs and tests where Firebase is not reachable.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier creates a JWTVerifier.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &JWTVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify parses token and maps its sub and role claims.
func (v *JWTVerifier) Verify(_ context.Context, token string) (domain.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return domain.Actor{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: unexpected claims", apperr.ErrUnauthorized)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return actorFromClaims(sub, claims)
}

// Issue signs a token for actor valid for ttl.
func (v *JWTVerifier) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.MapClaims{
		"sub":     actor.UserID,
		RoleClaim: string(actor.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
