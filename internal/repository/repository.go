package repository

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
)

type EquipmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
}

// BookingRepository is the booking store. ListOccupying is the conflict-set
// projection; CreateExclusive is the only write path that may add an occupying row.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListOccupying(ctx context.Context, equipmentID string, window domain.Interval, excludeBookingID string) ([]domain.Booking, error)
	CreateExclusive(ctx context.Context, booking *domain.Booking, guard domain.Interval) error
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
	UpdateInterval(ctx context.Context, id string, interval domain.Interval, guard domain.Interval) error
	ListStalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error)
}

type BlockRepository interface {
	GetByID(ctx context.Context, id string) (*domain.AvailabilityBlock, error)
	List(ctx context.Context, equipmentID string, window domain.Interval) ([]domain.AvailabilityBlock, error)
	Create(ctx context.Context, block *domain.AvailabilityBlock) error
	UpdateInterval(ctx context.Context, id string, interval domain.Interval) error
	Delete(ctx context.Context, id string) error
	// DeleteEndedBefore returns the equipment ID of every deleted block, one per row.
	DeleteEndedBefore(ctx context.Context, cutoff time.Time, keep []domain.BlockReason) ([]string, error)
}

type SeasonalPricingRepository interface {
	// QueryActive returns the active row for equipmentType covering date, or nil.
	QueryActive(ctx context.Context, equipmentType string, date time.Time) (*domain.SeasonalPricing, error)
}

// Repositories bundles the stores the services are built from.
type Repositories struct {
	Equipment EquipmentRepository
	Bookings  BookingRepository
	Blocks    BlockRepository
	Seasons   SeasonalPricingRepository
}
