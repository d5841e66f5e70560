package handlers

import (
	"time"

	"local-dispatch/internal/domain"
)

type courierDTO struct {
	ID                string                      `json:"id"`
	Name              string                      `json:"name"`
	Phone             string                      `json:"phone"`
	Status            domain.CourierStatus        `json:"status"`
	TransportType     domain.CourierTransportType `json:"transport_type"`
	Location          *domain.Location            `json:"location,omitempty"`
	LocationUpdatedAt *time.Time                  `json:"location_updated_at,omitempty"`
}

type createCourierRequest struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone" validate:"required,e164"`
	Status        string `json:"status" validate:"omitempty,oneof=available paused"`
	TransportType string `json:"transport_type" validate:"omitempty,oneof=on_foot scooter car"`
}

type updateCourierRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,e164"`
	TransportType *string `json:"transport_type,omitempty" validate:"omitempty,oneof=on_foot scooter car"`
}

type locationRequest struct {
	Lat        *float64   `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng        *float64   `json:"lng" validate:"required,gte=-180,lte=180"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
}

type availabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

func (req createCourierRequest) toModel() *domain.Courier {
	return &domain.Courier{
		ID:            req.ID,
		Name:          req.Name,
		Phone:         req.Phone,
		Status:        domain.CourierStatus(req.Status),
		TransportType: domain.CourierTransportType(req.TransportType),
	}
}

func (req updateCourierRequest) toModel(id string) domain.PartialCourierUpdate {
	u := domain.PartialCourierUpdate{
		ID:    id,
		Name:  req.Name,
		Phone: req.Phone,
	}
	if req.TransportType != nil {
		t := domain.CourierTransportType(*req.TransportType)
		u.TransportType = &t
	}
	return u
}

func (req locationRequest) toModel(id string) domain.LocationUpdate {
	u := domain.LocationUpdate{
		CourierID: id,
		Location:  domain.Location{Lat: *req.Lat, Lng: *req.Lng},
	}
	if req.ReportedAt != nil {
		u.ReportedAt = req.ReportedAt.UTC()
	}
	return u
}

func courierToResponse(c domain.Courier) courierDTO {
	dto := courierDTO{
		ID:            c.ID,
		Name:          c.Name,
		Phone:         c.Phone,
		Status:        c.Status,
		TransportType: c.TransportType,
		Location:      c.Location,
	}
	if !c.LocationUpdatedAt.IsZero() {
		at := c.LocationUpdatedAt
		dto.LocationUpdatedAt = &at
	}
	return dto
}

func couriersToResponse(list []domain.Courier) []courierDTO {
	out := make([]courierDTO, 0, len(list))
	for _, c := range list {
		out = append(out, courierToResponse(c))
	}
	return out
}
