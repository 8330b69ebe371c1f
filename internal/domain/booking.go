package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending           BookingStatus = "pending"
	BookingStatusConfirmed         BookingStatus = "confirmed"
	BookingStatusPaid              BookingStatus = "paid"
	BookingStatusInsuranceVerified BookingStatus = "insurance_verified"
	BookingStatusReadyForPickup    BookingStatus = "ready_for_pickup"
	BookingStatusDelivered         BookingStatus = "delivered"
	BookingStatusInProgress        BookingStatus = "in_progress"
	BookingStatusHoldPlaced        BookingStatus = "hold_placed"
	BookingStatusDepositScheduled  BookingStatus = "deposit_scheduled"
	BookingStatusVerifyHoldOK      BookingStatus = "verify_hold_ok"
	BookingStatusReturnedOK        BookingStatus = "returned_ok"
	BookingStatusCaptured          BookingStatus = "captured"

	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// occupying is the one place that decides which statuses hold the equipment.
// The grouping follows status naming and still needs sign-off from operations.
var occupying = map[BookingStatus]bool{
	BookingStatusPending:           true,
	BookingStatusConfirmed:         true,
	BookingStatusPaid:              true,
	BookingStatusInsuranceVerified: true,
	BookingStatusReadyForPickup:    true,
	BookingStatusDelivered:         true,
	BookingStatusInProgress:        true,
	BookingStatusHoldPlaced:        true,
	BookingStatusDepositScheduled:  true,
	BookingStatusVerifyHoldOK:      true,
	BookingStatusReturnedOK:        true,
	BookingStatusCaptured:          true,

	BookingStatusCompleted: false,
	BookingStatusCancelled: false,
	BookingStatusRejected:  false,
	BookingStatusNoShow:    false,
}

// allStatuses keeps a stable order for queries and tests.
var allStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusPaid,
	BookingStatusInsuranceVerified,
	BookingStatusReadyForPickup,
	BookingStatusDelivered,
	BookingStatusInProgress,
	BookingStatusHoldPlaced,
	BookingStatusDepositScheduled,
	BookingStatusVerifyHoldOK,
	BookingStatusReturnedOK,
	BookingStatusCaptured,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusRejected,
	BookingStatusNoShow,
}

// IsOccupying reports whether a booking in status s blocks overlapping bookings.
// Unknown statuses are treated as occupying.
func IsOccupying(s BookingStatus) bool {
	occ, known := occupying[s]
	return occ || !known
}

// IsTerminal reports whether s releases the equipment for good.
func IsTerminal(s BookingStatus) bool {
	occ, known := occupying[s]
	return known && !occ
}

// OccupyingStatuses returns the statuses that hold equipment, in declaration order.
func OccupyingStatuses() []BookingStatus {
	out := make([]BookingStatus, 0, len(allStatuses))
	for _, s := range allStatuses {
		if occupying[s] {
			out = append(out, s)
		}
	}
	return out
}

// TerminalStatuses returns the statuses that release equipment, in declaration
// order. Stores filter with "not terminal" so unrecognised statuses still occupy.
func TerminalStatuses() []BookingStatus {
	out := make([]BookingStatus, 0, len(allStatuses))
	for _, s := range allStatuses {
		if IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}

// ParseBookingStatus maps a stored or user-supplied status onto the closed set.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if _, ok := occupying[st]; !ok {
		return "", NewInvalidRequest("unknown booking status %q", s)
	}
	return st, nil
}

// CanTransition allows every move out of an occupying status and none out of a terminal one.
func CanTransition(from, to BookingStatus) bool {
	if _, ok := occupying[to]; !ok {
		return false
	}
	if from == to {
		return true
	}
	return !IsTerminal(from)
}

type Booking struct {
	ID            string        `json:"id"`
	BookingNumber string        `json:"booking_number"`
	EquipmentID   string        `json:"equipment_id"`
	CustomerID    string        `json:"customer_id"`
	Interval      Interval      `json:"interval"`
	Status        BookingStatus `json:"status"`

	// Rate snapshot, captured from the equipment at creation time.
	DailyRate          int64   `json:"daily_rate"`
	WeeklyRate         int64   `json:"weekly_rate"`
	MonthlyRate        int64   `json:"monthly_rate"`
	SeasonalMultiplier float64 `json:"seasonal_multiplier"`

	Subtotal        int64 `json:"subtotal"`
	DeliveryFee     int64 `json:"delivery_fee"`
	FloatFee        int64 `json:"float_fee"`
	Taxes           int64 `json:"taxes"`
	TotalAmount     int64 `json:"total_amount"`
	SecurityDeposit int64 `json:"security_deposit"`

	StripePaymentIntentID *string `json:"stripe_payment_intent_id,omitempty"`
	StripeHoldIntentID    *string `json:"stripe_hold_intent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBookingNumber formats the human-readable reference, e.g. UDR-2026-048213.
func NewBookingNumber(now time.Time) string {
	return fmt.Sprintf("UDR-%d-%06d", now.Year(), now.UnixMilli()%1000000)
}
