package service

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/utils"
)

// Clock returns the current instant. Injected so validation is deterministic in tests.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// AvailabilityService is advisory: a positive verdict does not reserve anything.
// The store-level exclusion constraint decides under concurrent writers.
type AvailabilityService interface {
	CheckAvailability(ctx context.Context, equipmentID string, requested domain.Interval, excludeBookingID string) (*domain.AvailabilityVerdict, error)
	SuggestAlternatives(ctx context.Context, equipmentID string, requested domain.Interval, limit int) ([]domain.Alternative, error)
}

type BlockService interface {
	ListBlocks(ctx context.Context, equipmentID string, window domain.Interval) ([]domain.AvailabilityBlock, error)
	ListBlocksForEquipment(ctx context.Context, equipmentID string) ([]domain.AvailabilityBlock, error)
	CreateBlock(ctx context.Context, equipmentID string, interval domain.Interval, reason domain.BlockReason, notes, createdBy string) (*domain.AvailabilityBlock, error)
	ResizeBlock(ctx context.Context, blockID string, interval domain.Interval) (*domain.AvailabilityBlock, error)
	DeleteBlock(ctx context.Context, blockID string) error
	PurgeEndedBlocks(ctx context.Context, retention time.Duration) (int64, error)
}

type PricingService interface {
	CalculatePricing(ctx context.Context, req PricingRequest) (*PriceBreakdown, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, req BookingRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	Reschedule(ctx context.Context, id string, interval domain.Interval) (*domain.Booking, error)
	ReleaseStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type PricingRequest struct {
	EquipmentID string          `json:"equipment_id"`
	Interval    domain.Interval `json:"interval"`
	CustomerID  string          `json:"customer_id,omitempty"`
	// DeliveryCity empty means customer pickup: no delivery or float fee.
	DeliveryCity string `json:"delivery_city,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// PriceBreakdown is the full quote. All amounts are cents.
type PriceBreakdown struct {
	EquipmentID        string              `json:"equipment_id"`
	Interval           domain.Interval     `json:"interval"`
	Days               int                 `json:"days"`
	DailyRate          int64               `json:"daily_rate"`
	WeeklyRate         int64               `json:"weekly_rate"`
	MonthlyRate        int64               `json:"monthly_rate"`
	Tiers              utils.RateBreakdown `json:"tiers"`
	SeasonalMultiplier float64             `json:"seasonal_multiplier"`
	Season             string              `json:"season,omitempty"`
	Subtotal           int64               `json:"subtotal"`
	DeliveryFee        int64               `json:"delivery_fee"`
	FloatFee           int64               `json:"float_fee"`
	TaxRate            float64             `json:"tax_rate"`
	Taxes              int64               `json:"taxes"`
	SecurityDeposit    int64               `json:"security_deposit"`
	TotalAmount        int64               `json:"total_amount"`
}

type BookingRequest struct {
	EquipmentID  string          `json:"equipment_id"`
	CustomerID   string          `json:"customer_id"`
	Interval     domain.Interval `json:"interval"`
	DeliveryCity string          `json:"delivery_city,omitempty"`
	Jurisdiction string          `json:"jurisdiction,omitempty"`
}
