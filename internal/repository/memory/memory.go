// Package memory is an in-process store with the same semantics as the
// postgres repositories, including the exclusive booking insert. It backs
// the service tests and the CLI's --memory mode.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type Store struct {
	mu        sync.RWMutex
	equipment map[string]domain.Equipment
	bookings  map[string]domain.Booking
	blocks    map[string]domain.AvailabilityBlock
	seasons   []domain.SeasonalPricing

	// failures are returned once by the named operation, then cleared.
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		equipment: make(map[string]domain.Equipment),
		bookings:  make(map[string]domain.Booking),
		blocks:    make(map[string]domain.AvailabilityBlock),
		failures:  make(map[string]error),
	}
}

// FailNext makes the next call of op return err. Ops are named like the
// postgres log operations, e.g. "bookings.create".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	err, ok := s.failures[op]
	if ok {
		delete(s.failures, op)
	}
	return err
}

func (s *Store) PutEquipment(e domain.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment[e.ID] = e
}

// PutBooking stores b without any overlap check. Seeding only.
func (s *Store) PutBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

func (s *Store) PutSeasonalPricing(p domain.SeasonalPricing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seasons = append(s.seasons, p)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// equipment

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("equipment.get"); err != nil {
		return nil, err
	}
	e, ok := s.equipment[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "equipment", ID: id}
	}
	return &e, nil
}

// Repositories exposes the store under each repository interface.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Equipment: s,
		Bookings:  s.Bookings(),
		Blocks:    s.Blocks(),
		Seasons:   s.Seasons(),
	}
}

func (s *Store) Bookings() *BookingView { return &BookingView{s} }

func (s *Store) Blocks() *BlockView { return &BlockView{s} }

func (s *Store) Seasons() *SeasonView { return &SeasonView{s} }

type BookingView struct{ s *Store }

func (v *BookingView) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("bookings.get"); err != nil {
		return nil, err
	}
	b, ok := v.s.bookings[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "booking", ID: id}
	}
	return &b, nil
}

func (v *BookingView) ListOccupying(ctx context.Context, equipmentID string, window domain.Interval, excludeBookingID string) ([]domain.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("bookings.list_occupying"); err != nil {
		return nil, err
	}
	return v.s.occupyingLocked(equipmentID, window, excludeBookingID), nil
}

func (s *Store) occupyingLocked(equipmentID string, window domain.Interval, excludeID string) []domain.Booking {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.EquipmentID != equipmentID || b.ID == excludeID || !domain.IsOccupying(b.Status) {
			continue
		}
		if domain.Overlaps(b.Interval, window) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out
}

func (s *Store) blocksLocked(equipmentID string, window domain.Interval) []domain.AvailabilityBlock {
	var out []domain.AvailabilityBlock
	for _, b := range s.blocks {
		if b.EquipmentID == equipmentID && domain.Overlaps(b.Interval, window) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out
}

// ensureFreeLocked mirrors the postgres transactional re-check.
func (s *Store) ensureFreeLocked(equipmentID string, guard domain.Interval, excludeID string) error {
	if len(s.occupyingLocked(equipmentID, guard, excludeID)) > 0 || len(s.blocksLocked(equipmentID, guard)) > 0 {
		return &domain.OverlapError{EquipmentID: equipmentID, Interval: guard, Detail: "equipment is not available"}
	}
	return nil
}

func (v *BookingView) CreateExclusive(ctx context.Context, b *domain.Booking, guard domain.Interval) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("bookings.create"); err != nil {
		return err
	}
	if err := v.s.ensureFreeLocked(b.EquipmentID, guard, b.ID); err != nil {
		return err
	}
	v.s.bookings[b.ID] = *b
	return nil
}

func (v *BookingView) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("bookings.update_status"); err != nil {
		return err
	}
	b, ok := v.s.bookings[id]
	if !ok {
		return &domain.NotFoundError{Entity: "booking", ID: id}
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	v.s.bookings[id] = b
	return nil
}

func (v *BookingView) UpdateInterval(ctx context.Context, id string, interval domain.Interval, guard domain.Interval) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("bookings.update_interval"); err != nil {
		return err
	}
	b, ok := v.s.bookings[id]
	if !ok {
		return &domain.NotFoundError{Entity: "booking", ID: id}
	}
	if err := v.s.ensureFreeLocked(b.EquipmentID, guard, id); err != nil {
		return err
	}
	b.Interval = interval
	b.UpdatedAt = time.Now().UTC()
	v.s.bookings[id] = b
	return nil
}

func (v *BookingView) ListStalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range v.s.bookings {
		if b.Status == domain.BookingStatusPending && b.CreatedAt.Before(createdBefore) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type BlockView struct{ s *Store }

func (v *BlockView) GetByID(ctx context.Context, id string) (*domain.AvailabilityBlock, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	b, ok := v.s.blocks[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "availability block", ID: id}
	}
	return &b, nil
}

func (v *BlockView) List(ctx context.Context, equipmentID string, window domain.Interval) ([]domain.AvailabilityBlock, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("availability_blocks.list"); err != nil {
		return nil, err
	}
	return v.s.blocksLocked(equipmentID, window), nil
}

func (v *BlockView) Create(ctx context.Context, b *domain.AvailabilityBlock) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("availability_blocks.create"); err != nil {
		return err
	}
	v.s.blocks[b.ID] = *b
	return nil
}

func (v *BlockView) UpdateInterval(ctx context.Context, id string, interval domain.Interval) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.blocks[id]
	if !ok {
		return &domain.NotFoundError{Entity: "availability block", ID: id}
	}
	b.Interval = interval
	b.UpdatedAt = time.Now().UTC()
	v.s.blocks[id] = b
	return nil
}

func (v *BlockView) Delete(ctx context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.blocks, id)
	return nil
}

func (v *BlockView) DeleteEndedBefore(ctx context.Context, cutoff time.Time, keep []domain.BlockReason) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var equipmentIDs []string
	for id, b := range v.s.blocks {
		if b.Interval.End.Before(cutoff) && !slices.Contains(keep, b.Reason) {
			delete(v.s.blocks, id)
			equipmentIDs = append(equipmentIDs, b.EquipmentID)
		}
	}
	return equipmentIDs, nil
}

type SeasonView struct{ s *Store }

// QueryActive picks the most recently started window when several overlap.
func (v *SeasonView) QueryActive(ctx context.Context, equipmentType string, date time.Time) (*domain.SeasonalPricing, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.takeFailure("seasonal_pricing.query_active"); err != nil {
		return nil, err
	}
	var best *domain.SeasonalPricing
	for i := range v.s.seasons {
		p := v.s.seasons[i]
		if p.EquipmentType != equipmentType || !p.AppliesOn(date) {
			continue
		}
		if best == nil || p.StartDate.After(best.StartDate) {
			best = &p
		}
	}
	return best, nil
}
