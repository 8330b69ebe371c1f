package http

import (
	"net/http"
	"strconv"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services holds the service dependencies the HTTP handlers call.
type Services struct {
	Availability service.AvailabilityService
	Blocks       service.BlockService
	Pricing      service.PricingService
	Bookings     service.BookingService
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// CheckAvailability handles GET /api/v1/equipment/{id}/availability.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	equipmentID := mux.Vars(r)["id"]
	q := r.URL.Query()
	requested, err := parseInterval(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	verdict, err := h.svc.Availability.CheckAvailability(r.Context(), equipmentID, requested, q.Get("exclude_booking_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := availabilityResponse{AvailabilityVerdict: verdict}
	if want, _ := strconv.ParseBool(q.Get("alternatives")); want && !verdict.IsAvailable {
		resp.Alternatives, err = h.svc.Availability.SuggestAlternatives(r.Context(), equipmentID, requested, 0)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CalculatePricing handles POST /api/v1/equipment/{id}/pricing.
func (h *Handler) CalculatePricing(w http.ResponseWriter, r *http.Request) {
	var body pricingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	iv, err := body.interval()
	if err != nil {
		writeError(w, r, err)
		return
	}

	quote, err := h.svc.Pricing.CalculatePricing(r.Context(), service.PricingRequest{
		EquipmentID:  mux.Vars(r)["id"],
		Interval:     iv,
		CustomerID:   body.CustomerID,
		DeliveryCity: body.DeliveryCity,
		Jurisdiction: body.Jurisdiction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ListBlocks handles GET /api/v1/equipment/{id}/blocks. Without start and end
// it returns the calendar from now to the search horizon.
func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	equipmentID := mux.Vars(r)["id"]
	q := r.URL.Query()

	var (
		blocks []domain.AvailabilityBlock
		err    error
	)
	if q.Get("start") == "" && q.Get("end") == "" {
		blocks, err = h.svc.Blocks.ListBlocksForEquipment(r.Context(), equipmentID)
	} else {
		var window domain.Interval
		if window, err = parseInterval(q.Get("start"), q.Get("end")); err == nil {
			blocks, err = h.svc.Blocks.ListBlocks(r.Context(), equipmentID, window)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if blocks == nil {
		blocks = []domain.AvailabilityBlock{}
	}
	writeJSON(w, http.StatusOK, blocks)
}

// CreateBlock handles POST /api/v1/equipment/{id}/blocks.
func (h *Handler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var body createBlockBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	iv, err := body.interval()
	if err != nil {
		writeError(w, r, err)
		return
	}

	block, err := h.svc.Blocks.CreateBlock(r.Context(), mux.Vars(r)["id"], iv, domain.BlockReason(body.Reason), body.Notes, body.CreatedBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

// ResizeBlock handles PATCH /api/v1/blocks/{id}.
func (h *Handler) ResizeBlock(w http.ResponseWriter, r *http.Request) {
	var body intervalBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	iv, err := body.interval()
	if err != nil {
		writeError(w, r, err)
		return
	}

	block, err := h.svc.Blocks.ResizeBlock(r.Context(), mux.Vars(r)["id"], iv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// DeleteBlock handles DELETE /api/v1/blocks/{id}. Unknown ids also get 204.
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Blocks.DeleteBlock(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBooking handles POST /api/v1/bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	iv, err := body.interval()
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Bookings.CreateBooking(r.Context(), service.BookingRequest{
		EquipmentID:  body.EquipmentID,
		CustomerID:   body.CustomerID,
		Interval:     iv,
		DeliveryCity: body.DeliveryCity,
		Jurisdiction: body.Jurisdiction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Bookings.GetBooking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/{id}/status.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Bookings.UpdateStatus(r.Context(), mux.Vars(r)["id"], domain.BookingStatus(body.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// RescheduleBooking handles PATCH /api/v1/bookings/{id}/dates.
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	var body intervalBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	iv, err := body.interval()
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Bookings.Reschedule(r.Context(), mux.Vars(r)["id"], iv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
