package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/http/handlers"
	"local-dispatch/internal/http/middleware/ratelimit"
	"local-dispatch/internal/http/router"
)

type denyAll struct{}

func (denyAll) Verify(context.Context, string) (domain.Actor, error) {
	return domain.Actor{}, apperr.ErrUnauthorized
}

// tokenIsUser treats the bearer token as the user id of a client.
type tokenIsUser struct{}

func (tokenIsUser) Verify(_ context.Context, token string) (domain.Actor, error) {
	return domain.Actor{UserID: token, Role: domain.RoleClient}, nil
}

func newRouter() http.Handler {
	return router.New(router.Deps{
		Verifier: denyAll{},
		Base:     handlers.New(nil, nil),
		Orders:   handlers.NewOrderHandler(nil, nil, nil),
		Couriers: handlers.NewCourierHandler(nil, nil),
	})
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	h := newRouter()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/healthcheck", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	h := newRouter()
	routes := []struct{ method, path string }{
		{http.MethodGet, "/orders/"},
		{http.MethodGet, "/orders/o-1"},
		{http.MethodPatch, "/orders/o-1/status"},
		{http.MethodPost, "/orders/o-1/dispatch"},
		{http.MethodPut, "/orders/o-1/notes"},
		{http.MethodPost, "/couriers/"},
		{http.MethodPut, "/couriers/c-1/location"},
		{http.MethodPut, "/couriers/c-1/availability"},
	}
	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, nil)
		req.Header.Set("Authorization", "Bearer whatever")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)
	}
}

func TestRouter_RateLimitIsPerActor(t *testing.T) {
	t.Parallel()

	h := router.New(router.Deps{
		Verifier:  tokenIsUser{},
		RateLimit: ratelimit.New(nil, nil, ratelimit.NewBucketLimiter(nil, ratelimit.Config{Rate: 0.001, Burst: 1})),
		Base:      handlers.New(nil, nil),
		Orders:    handlers.NewOrderHandler(nil, nil, nil),
		Couriers:  handlers.NewCourierHandler(nil, nil),
	})

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/orders/?status=bogus", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusBadRequest, call("cust-1"))
	require.Equal(t, http.StatusTooManyRequests, call("cust-1"))
	require.Equal(t, http.StatusBadRequest, call("cust-2"))

	// public routes are not throttled
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
