package service

import (
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/repository/memory"
)

var testNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func jun(d int) time.Time { return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC) }
func jul(d int) time.Time { return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC) }

func iv(start, end time.Time) domain.Interval { return domain.MustInterval(start, end) }

func availabilityConfig() config.AvailabilityConfig {
	return config.AvailabilityConfig{
		NextAvailableHorizon: 365 * 24 * time.Hour,
		MaxRentalDays:        365,
		MaxAlternatives:      5,
	}
}

func pricingConfig() config.PricingConfig {
	return config.PricingConfig{
		DefaultTaxRate:      0.15,
		TaxRates:            map[string]float64{"AB": 0.05},
		DeliveryFees:        map[string]int64{"Saint John": 30000, "Hampton": 38000},
		DefaultDeliveryFee:  15000,
		FloatFee:            5000,
		MinimumDepositCents: 50000,
		DepositRate:         0.01,
	}
}

func excavator() domain.Equipment {
	return domain.Equipment{
		ID:               "eq-1",
		UnitID:           "SVL75-001",
		Type:             "excavator",
		Status:           domain.EquipmentStatusAvailable,
		DailyRate:        20000,
		ReplacementValue: 9000000,
	}
}

func booking(id string, interval domain.Interval, status domain.BookingStatus) domain.Booking {
	return domain.Booking{
		ID:          id,
		EquipmentID: "eq-1",
		CustomerID:  "cust-1",
		Interval:    interval,
		Status:      status,
		CreatedAt:   testNow.Add(-time.Hour),
	}
}

// newStore seeds eq-1 with no bookings, blocks or seasons.
func newStore() *memory.Store {
	s := memory.NewStore()
	s.PutEquipment(excavator())
	return s
}

func repos(e repository.EquipmentRepository, b repository.BookingRepository, bl repository.BlockRepository, s repository.SeasonalPricingRepository) repository.Repositories {
	return repository.Repositories{Equipment: e, Bookings: b, Blocks: bl, Seasons: s}
}
