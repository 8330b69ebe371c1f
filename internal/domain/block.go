package domain

import "time"

type BlockReason string

const (
	BlockReasonBooked      BlockReason = "booked"
	BlockReasonMaintenance BlockReason = "maintenance"
	BlockReasonBlackout    BlockReason = "blackout"
	BlockReasonBuffer      BlockReason = "buffer"
	BlockReasonReserved    BlockReason = "reserved"
)

var blockReasons = []BlockReason{
	BlockReasonBooked,
	BlockReasonMaintenance,
	BlockReasonBlackout,
	BlockReasonBuffer,
	BlockReasonReserved,
}

// ParseBlockReason maps a stored or user-supplied reason onto the closed set.
func ParseBlockReason(s string) (BlockReason, error) {
	for _, r := range blockReasons {
		if string(r) == s {
			return r, nil
		}
	}
	return "", NewInvalidRequest("unknown block reason %q", s)
}

// AvailabilityBlock is equipment unavailability that is not caused by a booking.
// Only its interval may change after creation.
type AvailabilityBlock struct {
	ID          string      `json:"id"`
	EquipmentID string      `json:"equipment_id"`
	Interval    Interval    `json:"interval"`
	Reason      BlockReason `json:"reason"`
	Notes       string      `json:"notes,omitempty"`
	CreatedBy   *string     `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
