package firebaseapp

import (
	"context"

	"firebase.google.com/go/v4/db"
	"github.com/pkg/errors"
)

// DefaultLocationsPath is the RTDB node the courier app writes positions to.
const DefaultLocationsPath = "courier_locations"

// LocationEntry mirrors one courier entry under the locations node.
type LocationEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Status    string  `json:"status"`
	Timestamp int64   `json:"timestamp"`
}

// LocationFeed reads courier positions from the Realtime Database.
type LocationFeed struct {
	client *db.Client
	path   string
}

// NewLocationFeed creates a LocationFeed on path (DefaultLocationsPath when empty).
func NewLocationFeed(client *db.Client, path string) *LocationFeed {
	if path == "" {
		path = DefaultLocationsPath
	}
	return &LocationFeed{client: client, path: path}
}

// Online returns the entries of couriers whose app reports them online, keyed by courier id.
func (f *LocationFeed) Online(ctx context.Context) (map[string]LocationEntry, error) {
	var data map[string]LocationEntry
	if err := f.client.NewRef(f.path).OrderByChild("status").EqualTo("online").Get(ctx, &data); err != nil {
		return nil, errors.Wrap(err, "querying online couriers")
	}
	return data, nil
}
