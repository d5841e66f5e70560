package courier

import (
	"context"
	"strings"
	"time"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// Service coordinates courier business logic and orchestrates repository calls.
type Service struct {
	repo             courierRepository
	index            locationIndex
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time
}

// NewService creates and configures a courier Service. index may be nil.
func NewService(r courierRepository, index locationIndex, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:             r,
		index:            index,
		logger:           logger,
		operationTimeout: timeout,
		now:              time.Now,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// validateCreate validates a courier for creation.
func validateCreate(c *domain.Courier) error {
	if c == nil {
		return apperr.ErrInvalid
	}
	if strings.TrimSpace(c.ID) == "" {
		return apperr.ErrInvalid
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperr.ErrInvalid
	}
	if !domain.ValidatePhone(c.Phone) {
		return apperr.ErrInvalid
	}
	if c.Status == "" {
		c.Status = domain.StatusPaused
	}
	// busy is owned by dispatch
	if c.Status == domain.StatusBusy || !c.Status.Valid() {
		return apperr.ErrInvalid
	}
	if c.TransportType == "" {
		c.TransportType = domain.TransportTypeFoot
	}
	if !c.TransportType.Valid() {
		return apperr.ErrInvalid
	}
	return nil
}

func validateUpdate(u *domain.PartialCourierUpdate) error {
	if strings.TrimSpace(u.ID) == "" {
		return apperr.ErrInvalid
	}
	if u.Name == nil && u.Phone == nil && u.TransportType == nil {
		return apperr.ErrInvalid
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return apperr.ErrInvalid
	}
	if u.Phone != nil && !domain.ValidatePhone(*u.Phone) {
		return apperr.ErrInvalid
	}
	if u.TransportType != nil && !u.TransportType.Valid() {
		return apperr.ErrInvalid
	}
	return nil
}

// Get retrieves a courier by its ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Courier, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

// List returns couriers with optional pagination
func (s *Service) List(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, limit, offset)
}

// Create registers a courier under its identity id.
func (s *Service) Create(ctx context.Context, c *domain.Courier, actor domain.Actor) error {
	if err := validateCreate(c); err != nil {
		return err
	}
	if !actor.MayManageCourier(c.ID) {
		return apperr.ErrForbidden
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Create(ctx, c)
}

// UpdatePartial applies a partial update to a courier. It returns true if a row was updated.
func (s *Service) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate, actor domain.Actor) (bool, error) {
	if err := validateUpdate(&u); err != nil {
		return false, err
	}
	if !actor.MayManageCourier(u.ID) {
		return false, apperr.ErrForbidden
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.ErrNotFound
	}
	return true, nil
}

// SetAvailability switches a courier between available and paused.
// A busy courier cannot change availability until its delivery ends.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool, actor domain.Actor) (*domain.Courier, error) {
	if !actor.MayManageCourier(id) {
		return nil, apperr.ErrForbidden
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.repo.SetAvailability(ctx, id, available)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	if !ok {
		return nil, apperr.ErrConflict
	}
	s.syncIndex(ctx, c)
	return c, nil
}

// UpdateLocation stores a position report. Reports older than the stored one are
// ignored and reported as not applied.
func (s *Service) UpdateLocation(ctx context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error) {
	if !actor.MayManageCourier(u.CourierID) {
		return false, apperr.ErrForbidden
	}
	if !u.Location.Valid() {
		return false, apperr.ErrInvalid
	}
	if u.ReportedAt.IsZero() {
		u.ReportedAt = s.now().UTC()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	applied, err := s.repo.UpdateLocation(ctx, u)
	if err != nil {
		return false, err
	}
	c, err := s.repo.Get(ctx, u.CourierID)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, apperr.ErrNotFound
	}
	if applied {
		s.syncIndex(ctx, c)
	}
	return applied, nil
}

// Reindex refreshes the geo index entry of a courier from the stored record.
// It is called after dispatch reserves or releases the courier.
func (s *Service) Reindex(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		if s.index != nil {
			return s.index.Remove(ctx, id)
		}
		return apperr.ErrNotFound
	}
	s.syncIndex(ctx, c)
	return nil
}

func (s *Service) syncIndex(ctx context.Context, c *domain.Courier) {
	if s.index == nil {
		return
	}
	var err error
	if c.Status == domain.StatusAvailable && c.Location != nil {
		err = s.index.Upsert(ctx, domain.CourierCandidate{
			CourierID:         c.ID,
			Location:          *c.Location,
			Available:         true,
			LocationUpdatedAt: c.LocationUpdatedAt,
		})
	} else {
		err = s.index.Remove(ctx, c.ID)
	}
	if err != nil {
		s.logger.Warn("courier location index not updated",
			logx.String("courier_id", c.ID),
			logx.Err(err),
		)
	}
}
