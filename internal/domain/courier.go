package domain

import "time"

type (
	// CourierStatus represents the status of a courier.
	CourierStatus string
	// CourierTransportType represents the transport type of a courier.
	CourierTransportType string
)

// Courier is a delivery person entry of the user directory.
type Courier struct {
	ID                string
	Name              string
	Phone             string
	Status            CourierStatus
	TransportType     CourierTransportType
	Location          *Location
	LocationUpdatedAt time.Time
}

// PartialCourierUpdate carries optional fields to update a courier.
// A nil field means “do not change” that attribute.
type PartialCourierUpdate struct {
	ID            string
	Name          *string
	Phone         *string
	TransportType *CourierTransportType
}

// LocationUpdate is a courier position report.
type LocationUpdate struct {
	CourierID  string
	Location   Location
	ReportedAt time.Time
}

// CourierCandidate is the read-only snapshot of an available courier taken for one dispatch cycle.
type CourierCandidate struct {
	CourierID         string
	Location          Location
	Available         bool
	LocationUpdatedAt time.Time
}
