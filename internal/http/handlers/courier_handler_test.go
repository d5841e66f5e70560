package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
)

type stubCourierUsecase struct {
	getFn             func(ctx context.Context, id string) (*domain.Courier, error)
	listFn            func(ctx context.Context, limit, offset *int) ([]domain.Courier, error)
	createFn          func(ctx context.Context, c *domain.Courier, actor domain.Actor) error
	updateFn          func(ctx context.Context, u domain.PartialCourierUpdate, actor domain.Actor) (bool, error)
	setAvailabilityFn func(ctx context.Context, id string, available bool, actor domain.Actor) (*domain.Courier, error)
	updateLocationFn  func(ctx context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error)
}

func (s *stubCourierUsecase) Get(ctx context.Context, id string) (*domain.Courier, error) {
	return s.getFn(ctx, id)
}

func (s *stubCourierUsecase) List(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *stubCourierUsecase) Create(ctx context.Context, c *domain.Courier, actor domain.Actor) error {
	return s.createFn(ctx, c, actor)
}

func (s *stubCourierUsecase) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate, actor domain.Actor) (bool, error) {
	return s.updateFn(ctx, u, actor)
}

func (s *stubCourierUsecase) SetAvailability(ctx context.Context, id string, available bool, actor domain.Actor) (*domain.Courier, error) {
	return s.setAvailabilityFn(ctx, id, available, actor)
}

func (s *stubCourierUsecase) UpdateLocation(ctx context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error) {
	return s.updateLocationFn(ctx, u, actor)
}

var courierActor = domain.Actor{UserID: "c-1", Role: domain.RoleDeliveryPerson}

func courierRouter(h *CourierHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(withActor(&courierActor))
	r.Get("/couriers", h.List)
	r.Post("/couriers", h.Create)
	r.Get("/couriers/{id}", h.GetByID)
	r.Put("/couriers/{id}", h.Update)
	r.Put("/couriers/{id}/location", h.UpdateLocation)
	r.Put("/couriers/{id}/availability", h.SetAvailability)
	return r
}

func TestCourierHandler_GetByID(t *testing.T) {
	t.Parallel()

	seen := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	uc := &stubCourierUsecase{
		getFn: func(_ context.Context, id string) (*domain.Courier, error) {
			if id != "c-1" {
				return nil, apperr.ErrNotFound
			}
			return &domain.Courier{
				ID: "c-1", Name: "Lupita", Phone: "+5215512345678",
				Status: domain.StatusAvailable, TransportType: domain.TransportTypeScooter,
				Location: &domain.Location{Lat: 19.43, Lng: -99.13}, LocationUpdatedAt: seen,
			}, nil
		},
	}
	h := courierRouter(NewCourierHandler(nil, uc))

	rec := do(t, h, http.MethodGet, "/couriers/c-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id": "c-1",
		"name": "Lupita",
		"phone": "+5215512345678",
		"status": "available",
		"transport_type": "scooter",
		"location": {"lat": 19.43, "lng": -99.13},
		"location_updated_at": "2025-01-02T03:04:05Z"
	}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/couriers/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCourierHandler_List(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		listFn: func(_ context.Context, limit, offset *int) ([]domain.Courier, error) {
			require.Nil(t, limit)
			require.Equal(t, 10, *offset)
			return []domain.Courier{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	h := courierRouter(NewCourierHandler(nil, uc))

	rec := do(t, h, http.MethodGet, "/couriers?offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"b"`)

	rec = do(t, h, http.MethodGet, "/couriers?offset=x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourierHandler_Create(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		createFn: func(_ context.Context, c *domain.Courier, actor domain.Actor) error {
			require.Equal(t, courierActor, actor)
			if c.Phone == "+5215500000000" {
				return apperr.ErrConflict
			}
			c.Status = domain.StatusPaused
			return nil
		},
	}
	h := courierRouter(NewCourierHandler(nil, uc))

	rec := do(t, h, http.MethodPost, "/couriers", `{"id":"c-1","name":"Lupita","phone":"+5215512345678","transport_type":"car"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/couriers/c-1", rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), `"status":"paused"`)

	rec = do(t, h, http.MethodPost, "/couriers", `{"id":"c-1","name":"Lupita","phone":"5512"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid input: phone e164"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/couriers", `{"id":"c-1","name":"Lupita","phone":"+5215500000000"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCourierHandler_Update(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		updateFn: func(_ context.Context, u domain.PartialCourierUpdate, actor domain.Actor) (bool, error) {
			require.Equal(t, "c-1", u.ID)
			require.NotNil(t, u.TransportType)
			require.Equal(t, domain.TransportTypeCar, *u.TransportType)
			return true, nil
		},
	}
	h := courierRouter(NewCourierHandler(nil, uc))

	rec := do(t, h, http.MethodPut, "/couriers/c-1", `{"transport_type":"car"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/couriers/c-1", `{"transport_type":"rocket"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourierHandler_UpdateLocation(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		updateLocationFn: func(_ context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error) {
			require.Equal(t, "c-1", u.CourierID)
			require.Equal(t, domain.Location{Lat: 0, Lng: -99.13}, u.Location)
			require.True(t, u.ReportedAt.IsZero())
			return true, nil
		},
	}
	h := courierRouter(NewCourierHandler(nil, uc))

	rec := do(t, h, http.MethodPut, "/couriers/c-1/location", `{"lat":0,"lng":-99.13}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":true}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/couriers/c-1/location", `{"lng":-99.13}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/couriers/c-1/location", `{"lat":95,"lng":-99.13}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourierHandler_SetAvailability(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		setAvailabilityFn: func(_ context.Context, id string, available bool, actor domain.Actor) (*domain.Courier, error) {
			if id == "busy" {
				return nil, apperr.ErrConflict
			}
			require.False(t, available)
			return &domain.Courier{ID: id, Status: domain.StatusPaused}, nil
		},
	}
	h := courierRouter(NewCourierHandler(nil, uc))

	rec := do(t, h, http.MethodPut, "/couriers/c-1/availability", `{"available":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"paused"`)

	rec = do(t, h, http.MethodPut, "/couriers/busy/availability", `{"available":false}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPut, "/couriers/c-1/availability", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid input: available required"}`, rec.Body.String())
}
