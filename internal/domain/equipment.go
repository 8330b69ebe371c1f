package domain

import "time"

type EquipmentStatus string

const (
	EquipmentStatusAvailable   EquipmentStatus = "available"
	EquipmentStatusRented      EquipmentStatus = "rented"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
	EquipmentStatusRetired     EquipmentStatus = "retired"
)

// Equipment is the rentable unit. Rates are in cents.
type Equipment struct {
	ID                  string          `json:"id"`
	UnitID              string          `json:"unit_id"`
	Type                string          `json:"type"`
	Make                string          `json:"make"`
	Model               string          `json:"model"`
	Status              EquipmentStatus `json:"status"`
	DailyRate           int64           `json:"daily_rate"`
	WeeklyRate          int64           `json:"weekly_rate"`
	MonthlyRate         int64           `json:"monthly_rate"`
	HourlyRate          int64           `json:"hourly_rate"`
	OverageHourlyRate   int64           `json:"overage_hourly_rate"`
	DailyHourAllowance  int32           `json:"daily_hour_allowance"`
	WeeklyHourAllowance int32           `json:"weekly_hour_allowance"`
	MinimumRentalHours  int32           `json:"minimum_rental_hours"`
	ReplacementValue    int64           `json:"replacement_value"`

	// Per-unit turnaround; nil falls back to the configured default.
	BufferBefore *time.Duration `json:"buffer_before,omitempty"`
	BufferAfter  *time.Duration `json:"buffer_after,omitempty"`
}

// Rates is a resolved rate card.
type Rates struct {
	Daily   int64
	Weekly  int64
	Monthly int64
}

// EffectiveRates fills unset tiers: a week costs five days, a month twenty.
func (e *Equipment) EffectiveRates() Rates {
	r := Rates{Daily: e.DailyRate, Weekly: e.WeeklyRate, Monthly: e.MonthlyRate}
	if r.Weekly <= 0 {
		r.Weekly = r.Daily * 5
	}
	if r.Monthly <= 0 {
		r.Monthly = r.Daily * 20
	}
	return r
}

// Buffers resolves the turnaround padding for this unit.
func (e *Equipment) Buffers(defBefore, defAfter time.Duration) (time.Duration, time.Duration) {
	before, after := defBefore, defAfter
	if e.BufferBefore != nil {
		before = *e.BufferBefore
	}
	if e.BufferAfter != nil {
		after = *e.BufferAfter
	}
	return before, after
}
