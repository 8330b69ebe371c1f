package http

import (
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/utils"
)

// intervalBody is the wire form of an interval. Bounds are RFC3339 or yyyy-mm-dd.
type intervalBody struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (b intervalBody) interval() (domain.Interval, error) {
	return parseInterval(b.Start, b.End)
}

func parseInterval(start, end string) (domain.Interval, error) {
	if start == "" || end == "" {
		return domain.Interval{}, domain.NewInvalidRequest("start and end are required")
	}
	s, err := utils.ParseTimestamp(start)
	if err != nil {
		return domain.Interval{}, domain.NewInvalidRequest("start: %v", err)
	}
	e, err := utils.ParseTimestamp(end)
	if err != nil {
		return domain.Interval{}, domain.NewInvalidRequest("end: %v", err)
	}
	return domain.NewInterval(s, e)
}

type pricingBody struct {
	intervalBody
	CustomerID   string `json:"customer_id"`
	DeliveryCity string `json:"delivery_city"`
	Jurisdiction string `json:"jurisdiction"`
}

type createBlockBody struct {
	intervalBody
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
	CreatedBy string `json:"created_by"`
}

type createBookingBody struct {
	intervalBody
	EquipmentID  string `json:"equipment_id"`
	CustomerID   string `json:"customer_id"`
	DeliveryCity string `json:"delivery_city"`
	Jurisdiction string `json:"jurisdiction"`
}

type statusBody struct {
	Status string `json:"status"`
}

// availabilityResponse is the verdict plus, on request, nearby free slots.
type availabilityResponse struct {
	*domain.AvailabilityVerdict
	Alternatives []domain.Alternative `json:"alternatives,omitempty"`
}
