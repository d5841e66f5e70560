// Package memstore is an in-memory order store with the same compare-and-swap
// and reservation semantics as the Postgres repository. Transactions are serialized.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/ports/ordertx"
)

// Store keeps orders and courier statuses in memory.
type Store struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	enteredAt map[string]time.Time
	couriers  map[string]domain.CourierStatus
	changes   []domain.OrderChange

	// BeforeUpdate runs inside the transaction right before the order CAS.
	BeforeUpdate func(orderID string)
}

// New returns an empty store.
func New() *Store {
	return &Store{
		orders:    make(map[string]domain.Order),
		enteredAt: make(map[string]time.Time),
		couriers:  make(map[string]domain.CourierStatus),
	}
}

// PutOrder stores o as-is, as having entered its status at enteredAt. A zero version becomes 1.
func (s *Store) PutOrder(o domain.Order, enteredAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Version == 0 {
		o.Version = 1
	}
	s.orders[o.ID] = clone(o)
	s.enteredAt[o.ID] = enteredAt
}

// PutCourier sets the status of a courier.
func (s *Store) PutCourier(id string, status domain.CourierStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[id] = status
}

// Order returns a stored order.
func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return clone(o), ok
}

// CourierStatus returns the stored status of a courier.
func (s *Store) CourierStatus(id string) domain.CourierStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.couriers[id]
}

// Changes returns every committed change notification.
func (s *Store) Changes() []domain.OrderChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderChange(nil), s.changes...)
}

// Get returns the order, or nil when absent.
func (s *Store) Get(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	c := clone(o)
	return &c, nil
}

// Insert stores a new order unless the id is taken.
func (s *Store) Insert(_ context.Context, o *domain.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return false, nil
	}
	o.Version = 1
	s.orders[o.ID] = clone(*o)
	s.enteredAt[o.ID] = o.CreatedAt
	return true, nil
}

// List returns orders matching f ordered by id.
func (s *Store) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if f.BusinessID != "" && !o.HasBusiness(f.BusinessID) {
			continue
		}
		if f.CourierID != "" && o.DeliveryPersonID != f.CourierID {
			continue
		}
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset != nil {
		if *f.Offset >= len(out) {
			return []domain.Order{}, nil
		}
		out = out[*f.Offset:]
	}
	if f.Limit != nil && *f.Limit < len(out) {
		out = out[:*f.Limit]
	}
	return out, nil
}

// ListWaiting returns orders that entered status before cutoff.
func (s *Store) ListWaiting(_ context.Context, status domain.OrderStatus, cutoff time.Time, limit int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0)
	for id, o := range s.orders {
		if o.Status == status && s.enteredAt[id].Before(cutoff) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateNotes replaces both notes at expectedVersion.
func (s *Store) UpdateNotes(_ context.Context, id, internal, public string, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Version != expectedVersion {
		return false, nil
	}
	o.InternalNote, o.PublicNote = internal, public
	o.Version++
	s.orders[id] = o
	return true, nil
}

// WithTx runs fn against a staged copy and applies it only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txView{
		store:    s,
		orders:   make(map[string]domain.Order),
		couriers: make(map[string]domain.CourierStatus),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, o := range tx.orders {
		if s.orders[id].Status != o.Status {
			s.enteredAt[id] = time.Now()
		}
		s.orders[id] = o
	}
	for id, st := range tx.couriers {
		s.couriers[id] = st
	}
	s.changes = append(s.changes, tx.changes...)
	return nil
}

type txView struct {
	store    *Store
	orders   map[string]domain.Order
	couriers map[string]domain.CourierStatus
	changes  []domain.OrderChange
}

func (t *txView) order(id string) (domain.Order, bool) {
	if o, ok := t.orders[id]; ok {
		return o, true
	}
	o, ok := t.store.orders[id]
	return o, ok
}

func (t *txView) courier(id string) (domain.CourierStatus, bool) {
	if st, ok := t.couriers[id]; ok {
		return st, true
	}
	st, ok := t.store.couriers[id]
	return st, ok
}

func (t *txView) GetOrderForUpdate(_ context.Context, id string) (*domain.Order, error) {
	o, ok := t.order(id)
	if !ok {
		return nil, nil
	}
	c := clone(o)
	return &c, nil
}

func (t *txView) UpdateOrder(_ context.Context, next *domain.Order, expectedStatus domain.OrderStatus, expectedVersion int64) (bool, error) {
	if t.store.BeforeUpdate != nil {
		t.store.BeforeUpdate(next.ID)
	}
	cur, ok := t.order(next.ID)
	if !ok || cur.Status != expectedStatus || cur.Version != expectedVersion {
		return false, nil
	}
	next.Version = cur.Version + 1
	t.orders[next.ID] = clone(*next)
	return true, nil
}

func (t *txView) ReserveCourier(_ context.Context, courierID string) (bool, error) {
	st, ok := t.courier(courierID)
	if !ok || st != domain.StatusAvailable {
		return false, nil
	}
	t.couriers[courierID] = domain.StatusBusy
	return true, nil
}

func (t *txView) ReleaseCourier(_ context.Context, courierID string) error {
	if st, ok := t.courier(courierID); ok && st == domain.StatusBusy {
		t.couriers[courierID] = domain.StatusAvailable
	}
	return nil
}

func (t *txView) PublishChange(_ context.Context, change domain.OrderChange) error {
	t.changes = append(t.changes, change)
	return nil
}

// SetOrderLocked overwrites an order from inside BeforeUpdate, where the store lock is held.
func (s *Store) SetOrderLocked(o domain.Order) {
	s.orders[o.ID] = clone(o)
}

func clone(o domain.Order) domain.Order {
	o.BusinessIDs = append([]string(nil), o.BusinessIDs...)
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}
