package domain

import "time"

// SeasonalPricing is a fixed calendar window with a rate multiplier for one equipment type.
// StartDate and EndDate are both inclusive calendar days.
type SeasonalPricing struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	EquipmentType string    `json:"equipment_type"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Multiplier    float64   `json:"multiplier"`
	IsActive      bool      `json:"is_active"`
}

// AppliesOn reports whether the row covers the calendar day of t.
func (s *SeasonalPricing) AppliesOn(t time.Time) bool {
	if !s.IsActive {
		return false
	}
	d := TruncateDay(t)
	return !d.Before(TruncateDay(s.StartDate)) && !d.After(TruncateDay(s.EndDate))
}

// TruncateDay returns midnight UTC of t's calendar day.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
