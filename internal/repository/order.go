package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/ports/ordertx"
)

// ChangeChannel is the Postgres NOTIFY channel carrying order status changes.
const ChangeChannel = "order_changes"

const orderColumns = `
    id, customer_id, business_ids, items, total::text, status,
    COALESCE(delivery_person_id, ''),
    customer_lat, customer_lng, business_lat, business_lng,
    internal_note, public_note, created_at, delivered_at, version`

// OrderRepo stores orders and runs dispatch transactions.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

type itemRow struct {
	ProductRef string          `json:"product_ref"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                        domain.Order
		items                    []byte
		total                    string
		status                   string
		custLat, custLng         *float64
		businessLat, businessLng *float64
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.BusinessIDs, &items, &total, &status,
		&o.DeliveryPersonID,
		&custLat, &custLng, &businessLat, &businessLng,
		&o.InternalNote, &o.PublicNote, &o.CreatedAt, &o.DeliveredAt, &o.Version,
	)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)

	var rows []itemRow
	if err := json.Unmarshal(items, &rows); err != nil {
		return nil, fmt.Errorf("decode items of order %q: %w", o.ID, err)
	}
	o.Items = make([]domain.OrderItem, 0, len(rows))
	for _, it := range rows {
		o.Items = append(o.Items, domain.OrderItem(it))
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total of order %q: %w", o.ID, err)
	}
	o.CustomerLocation = toLocation(custLat, custLng)
	o.BusinessLocation = toLocation(businessLat, businessLng)
	return &o, nil
}

func toLocation(lat, lng *float64) *domain.Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &domain.Location{Lat: *lat, Lng: *lng}
}

func fromLocation(l *domain.Location) (lat, lng *float64) {
	if l == nil {
		return nil, nil
	}
	la, ln := l.Lat, l.Lng
	return &la, &ln
}

func encodeItems(items []domain.OrderItem) ([]byte, error) {
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, itemRow(it))
	}
	return json.Marshal(rows)
}

// Get returns the order by id, or nil when absent.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", id, err)
	}
	return o, nil
}

// Insert stores a new order. It returns false when an order with the same id already exists.
func (r *OrderRepo) Insert(ctx context.Context, o *domain.Order) (bool, error) {
	items, err := encodeItems(o.Items)
	if err != nil {
		return false, fmt.Errorf("encode items: %w", err)
	}
	custLat, custLng := fromLocation(o.CustomerLocation)
	businessLat, businessLng := fromLocation(o.BusinessLocation)

	ct, err := r.db.Exec(ctx, `
        INSERT INTO orders (
            id, customer_id, business_ids, items, total, status,
            customer_lat, customer_lng, business_lat, business_lng,
            internal_note, public_note, created_at, version
        )
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, 1)
        ON CONFLICT (id) DO NOTHING
    `,
		o.ID, o.CustomerID, o.BusinessIDs, items, o.Total.String(), string(o.Status),
		custLat, custLng, businessLat, businessLng,
		o.InternalNote, o.PublicNote, o.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert order %q: %w", o.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}
	o.Version = 1
	return true, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.BusinessID != "" {
		add("$%d = ANY(business_ids)", f.BusinessID)
	}
	if f.CourierID != "" {
		add("delivery_person_id = $%d", f.CourierID)
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	if f.Limit != nil {
		args = append(args, *f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset != nil {
		args = append(args, *f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryOrders(ctx, q, args...)
}

// ListWaiting returns orders that entered status before cutoff, oldest first.
// Note edits do not reset the wait.
func (r *OrderRepo) ListWaiting(ctx context.Context, status domain.OrderStatus, cutoff time.Time, limit int) ([]domain.Order, error) {
	return r.queryOrders(ctx, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE status = $1 AND status_changed_at < $2
        ORDER BY status_changed_at, id
        LIMIT $3
    `, string(status), cutoff, limit)
}

func (r *OrderRepo) queryOrders(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateNotes replaces both notes if the order is still at expectedVersion.
func (r *OrderRepo) UpdateNotes(ctx context.Context, id, internal, public string, expectedVersion int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE orders
        SET internal_note = $2, public_note = $3, version = version + 1, updated_at = now()
        WHERE id = $1 AND version = $4
    `, id, internal, public, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update notes of order %q: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// TxRepo is the transaction-scoped repository.
type TxRepo struct {
	tx pgx.Tx
}

var _ ordertx.Repository = (*TxRepo)(nil)

// GetOrderForUpdate locks and returns the order, or nil when absent.
func (r *TxRepo) GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q for update: %w", id, err)
	}
	return o, nil
}

// UpdateOrder is the compare-and-swap write of the order state.
func (r *TxRepo) UpdateOrder(ctx context.Context, next *domain.Order, expectedStatus domain.OrderStatus, expectedVersion int64) (bool, error) {
	var version int64
	err := r.tx.QueryRow(ctx, `
        UPDATE orders
        SET status = $2,
            delivery_person_id = NULLIF($3, ''),
            delivered_at = $4,
            version = version + 1,
            updated_at = now(),
            status_changed_at = CASE WHEN status = $2 THEN status_changed_at ELSE now() END
        WHERE id = $1 AND status = $5 AND version = $6
        RETURNING version
    `, next.ID, string(next.Status), next.DeliveryPersonID, next.DeliveredAt,
		string(expectedStatus), expectedVersion,
	).Scan(&version)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		if IsConstraint(err) {
			return false, fmt.Errorf("update order %q: %w: %s", next.ID, apperr.ErrConflict, err.Error())
		}
		return false, fmt.Errorf("update order %q: %w", next.ID, err)
	}
	next.Version = version
	return true, nil
}

// ReserveCourier sets the busy flag only if the courier is currently available.
func (r *TxRepo) ReserveCourier(ctx context.Context, courierID string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET status = $2, updated_at = now()
        WHERE id = $1 AND status = $3
    `, courierID, string(domain.StatusBusy), string(domain.StatusAvailable))
	if err != nil {
		return false, fmt.Errorf("reserve courier %q: %w", courierID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// ReleaseCourier clears the busy flag. Paused couriers stay paused.
func (r *TxRepo) ReleaseCourier(ctx context.Context, courierID string) error {
	_, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET status = $2, updated_at = now()
        WHERE id = $1 AND status = $3
    `, courierID, string(domain.StatusAvailable), string(domain.StatusBusy))
	if err != nil {
		return fmt.Errorf("release courier %q: %w", courierID, err)
	}
	return nil
}

// PublishChange queues a NOTIFY that Postgres delivers on commit.
func (r *TxRepo) PublishChange(ctx context.Context, change domain.OrderChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if _, err := r.tx.Exec(ctx, `SELECT pg_notify($1, $2)`, ChangeChannel, string(payload)); err != nil {
		return fmt.Errorf("notify change of order %q: %w", change.OrderID, err)
	}
	return nil
}
