package service

import (
	"context"
	"fmt"
	"time"

	"equiprent-backend/internal/cache"
	"equiprent-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockEquipmentRepo
type MockEquipmentRepo struct {
	mock.Mock
}

func (m *MockEquipmentRepo) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListOccupying(ctx context.Context, equipmentID string, window domain.Interval, excludeBookingID string) ([]domain.Booking, error) {
	args := m.Called(ctx, equipmentID, window, excludeBookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) CreateExclusive(ctx context.Context, booking *domain.Booking, guard domain.Interval) error {
	args := m.Called(ctx, booking, guard)
	return args.Error(0)
}
func (m *MockBookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockBookingRepo) UpdateInterval(ctx context.Context, id string, interval domain.Interval, guard domain.Interval) error {
	args := m.Called(ctx, id, interval, guard)
	return args.Error(0)
}
func (m *MockBookingRepo) ListStalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, createdBefore)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockBlockRepo
type MockBlockRepo struct {
	mock.Mock
}

func (m *MockBlockRepo) GetByID(ctx context.Context, id string) (*domain.AvailabilityBlock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityBlock), args.Error(1)
}
func (m *MockBlockRepo) List(ctx context.Context, equipmentID string, window domain.Interval) ([]domain.AvailabilityBlock, error) {
	args := m.Called(ctx, equipmentID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AvailabilityBlock), args.Error(1)
}
func (m *MockBlockRepo) Create(ctx context.Context, block *domain.AvailabilityBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}
func (m *MockBlockRepo) UpdateInterval(ctx context.Context, id string, interval domain.Interval) error {
	args := m.Called(ctx, id, interval)
	return args.Error(0)
}
func (m *MockBlockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockBlockRepo) DeleteEndedBefore(ctx context.Context, cutoff time.Time, keep []domain.BlockReason) ([]string, error) {
	args := m.Called(ctx, cutoff, keep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSeasonRepo
type MockSeasonRepo struct {
	mock.Mock
}

func (m *MockSeasonRepo) QueryActive(ctx context.Context, equipmentType string, date time.Time) (*domain.SeasonalPricing, error) {
	args := m.Called(ctx, equipmentType, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeasonalPricing), args.Error(1)
}

// recordingCache is an in-process VerdictCache that counts traffic.
type recordingCache struct {
	entries     map[string]*domain.AvailabilityVerdict
	gens        map[string]int
	hits        int
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]*domain.AvailabilityVerdict{}, gens: map[string]int{}}
}

func (c *recordingCache) key(k cache.Key, gen cache.Generation) string {
	return fmt.Sprintf("%s#%d", k, gen)
}

func (c *recordingCache) Get(_ context.Context, k cache.Key) (*domain.AvailabilityVerdict, cache.Generation, bool) {
	gen := cache.Generation(c.gens[k.EquipmentID])
	v, ok := c.entries[c.key(k, gen)]
	if ok {
		c.hits++
	}
	return v, gen, ok
}

func (c *recordingCache) Set(_ context.Context, k cache.Key, gen cache.Generation, v *domain.AvailabilityVerdict) {
	c.entries[c.key(k, gen)] = v
}

func (c *recordingCache) Invalidate(_ context.Context, equipmentID string) {
	c.gens[equipmentID]++
	c.invalidated = append(c.invalidated, equipmentID)
}

func (c *recordingCache) Ping(context.Context) error { return nil }
