package domain

import "time"

// AvailabilityVerdict is the resolver's answer for one requested interval.
// NextAvailableDate is nil when the unit is available or no free slot was
// found inside the search horizon.
type AvailabilityVerdict struct {
	EquipmentID         string     `json:"equipment_id"`
	Requested           Interval   `json:"requested"`
	IsAvailable         bool       `json:"is_available"`
	ConflictingBookings []Booking  `json:"conflicting_bookings"`
	BlackoutDates       []Interval `json:"blackout_dates"`
	NextAvailableDate   *time.Time `json:"next_available_date"`
}

// Alternative is a nearby free interval offered when the request is taken.
type Alternative struct {
	Interval Interval `json:"interval"`
	Reason   string   `json:"reason"`
}
