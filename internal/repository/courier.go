package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
)

const courierColumns = `id, name, phone, status, transport_type, lat, lng, location_updated_at`

// CourierRepo represents courier repository.
type CourierRepo struct{ db *pgxpool.Pool }

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo { return &CourierRepo{db: db} }

func scanCourier(row pgx.Row) (*domain.Courier, error) {
	var (
		c         domain.Courier
		lat, lng  *float64
		updatedAt *time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Status, &c.TransportType, &lat, &lng, &updatedAt); err != nil {
		return nil, err
	}
	c.Location = toLocation(lat, lng)
	if updatedAt != nil {
		c.LocationUpdatedAt = *updatedAt
	}
	return &c, nil
}

// Get - returns courier by its ID.
func (r *CourierRepo) Get(ctx context.Context, id string) (*domain.Courier, error) {
	c, err := scanCourier(r.db.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE id=$1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier %q: %w", id, err)
	}
	return c, nil
}

// List returns couriers ordered by id. If limit/offset are nil, returns the full list.
func (r *CourierRepo) List(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
	q := `SELECT ` + courierColumns + ` FROM couriers ORDER BY id`
	args := make([]any, 0, 2)
	if limit != nil {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *limit)
	}
	if offset != nil {
		q += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, *offset)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	capacity := 0
	if limit != nil && *limit > 0 {
		capacity = *limit
	}
	out := make([]domain.Courier, 0, capacity)
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create - creates a new courier under the identity id it was registered with.
func (r *CourierRepo) Create(ctx context.Context, c *domain.Courier) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO couriers(id,name,phone,status,transport_type) VALUES($1,$2,$3,$4,$5)`,
		c.ID, c.Name, c.Phone, c.Status, c.TransportType)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("create courier: %w", err)
	}
	return nil
}

// UpdatePartial applies a partial update to a courier and returns true if a row was affected.
func (r *CourierRepo) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE couriers
        SET
            name           = COALESCE($2, name),
            phone          = COALESCE($3, phone),
            transport_type = COALESCE($4, transport_type),
            updated_at     = now()
        WHERE id = $1
    `, u.ID, u.Name, u.Phone, u.TransportType)

	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.ErrConflict
		}
		return false, fmt.Errorf("update courier %q: %w", u.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// SetAvailability toggles a courier between available and paused.
// A busy courier is owned by dispatch and is left untouched; the call then reports false.
func (r *CourierRepo) SetAvailability(ctx context.Context, id string, available bool) (bool, error) {
	status := domain.StatusPaused
	if available {
		status = domain.StatusAvailable
	}
	ct, err := r.db.Exec(ctx, `
        UPDATE couriers
        SET status = $2, updated_at = now()
        WHERE id = $1 AND status <> $3
    `, id, string(status), string(domain.StatusBusy))
	if err != nil {
		return false, fmt.Errorf("set availability of courier %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateLocation stores a position report unless a newer one is already stored.
func (r *CourierRepo) UpdateLocation(ctx context.Context, u domain.LocationUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE couriers
        SET lat = $2, lng = $3, location_updated_at = $4, updated_at = now()
        WHERE id = $1 AND (location_updated_at IS NULL OR location_updated_at < $4)
    `, u.CourierID, u.Location.Lat, u.Location.Lng, u.ReportedAt)
	if err != nil {
		return false, fmt.Errorf("update location of courier %q: %w", u.CourierID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// AvailableCouriers returns every available courier with a known location.
// near is ignored; radius filtering happens in the pool.
func (r *CourierRepo) AvailableCouriers(ctx context.Context, _ *domain.Location) ([]domain.CourierCandidate, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, lat, lng, location_updated_at
        FROM couriers
        WHERE status = $1 AND lat IS NOT NULL AND lng IS NOT NULL AND location_updated_at IS NOT NULL
        ORDER BY id
    `, string(domain.StatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("list available couriers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CourierCandidate, 0)
	for rows.Next() {
		var cand domain.CourierCandidate
		if err := rows.Scan(&cand.CourierID, &cand.Location.Lat, &cand.Location.Lng, &cand.LocationUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan available courier: %w", err)
		}
		cand.Available = true
		out = append(out, cand)
	}
	return out, rows.Err()
}
