package service

import (
	"context"
	"fmt"
	"time"

	"equiprent-backend/internal/cache"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	"github.com/google/uuid"
)

type bookingService struct {
	repos    repository.Repositories
	resolver *availabilityService
	pricing  PricingService
	cache    cache.VerdictCache
	clock    Clock
}

// NewBookingService wires the write path. Its resolver bypasses the verdict
// cache; vc is only used for invalidation.
func NewBookingService(repos repository.Repositories, pricing PricingService, vc cache.VerdictCache, cfg config.AvailabilityConfig, clock Clock) BookingService {
	if vc == nil {
		vc = cache.Nop{}
	}
	return &bookingService{
		repos:    repos,
		resolver: newAvailabilityService(repos, cache.Nop{}, cfg, clock),
		pricing:  pricing,
		cache:    vc,
		clock:    clock,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req BookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "equipmentID", req.EquipmentID, "interval", req.Interval.String())
	ctx, span := startSpan(ctx, "booking.create", req.EquipmentID, req.Interval)

	b, err := s.createOnce(ctx, req)
	if domain.IsSerializationConflict(err) {
		logger.Warn("Booking insert lost a serializable race, retrying once", "equipmentID", req.EquipmentID, "error", err)
		b, err = s.createOnce(ctx, req)
	}
	endSpan(span, err)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "equipmentID", req.EquipmentID)
		return nil, err
	}

	s.cache.Invalidate(ctx, req.EquipmentID)
	logger.ExitMethod("bookingService.CreateBooking", "bookingID", b.ID, "bookingNumber", b.BookingNumber)
	return b, nil
}

// createOnce re-runs the resolver against the store, prices the request and
// inserts through the exclusive write path.
func (s *bookingService) createOnce(ctx context.Context, req BookingRequest) (*domain.Booking, error) {
	if req.CustomerID == "" {
		return nil, domain.NewInvalidRequest("customer id is required")
	}
	verdict, err := s.resolver.check(ctx, req.EquipmentID, req.Interval, "", false)
	if err != nil {
		return nil, err
	}
	if !verdict.IsAvailable {
		return nil, &domain.OverlapError{EquipmentID: req.EquipmentID, Interval: req.Interval, Detail: "equipment is not available"}
	}

	quote, err := s.pricing.CalculatePricing(ctx, PricingRequest{
		EquipmentID:  req.EquipmentID,
		Interval:     req.Interval,
		CustomerID:   req.CustomerID,
		DeliveryCity: req.DeliveryCity,
		Jurisdiction: req.Jurisdiction,
	})
	if err != nil {
		return nil, err
	}

	equipment, err := s.repos.Equipment.GetByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	before, after := s.resolver.buffers(equipment)

	now := s.clock.now()
	b := &domain.Booking{
		ID:                 uuid.New().String(),
		BookingNumber:      domain.NewBookingNumber(now),
		EquipmentID:        req.EquipmentID,
		CustomerID:         req.CustomerID,
		Interval:           req.Interval,
		Status:             domain.BookingStatusPending,
		DailyRate:          quote.DailyRate,
		WeeklyRate:         quote.WeeklyRate,
		MonthlyRate:        quote.MonthlyRate,
		SeasonalMultiplier: quote.SeasonalMultiplier,
		Subtotal:           quote.Subtotal,
		DeliveryFee:        quote.DeliveryFee,
		FloatFee:           quote.FloatFee,
		Taxes:              quote.Taxes,
		TotalAmount:        quote.TotalAmount,
		SecurityDeposit:    quote.SecurityDeposit,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repos.Bookings.CreateExclusive(ctx, b, domain.WithBuffer(req.Interval, before, after)); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if id == "" {
		return nil, domain.NewInvalidRequest("booking id is required")
	}
	return s.repos.Bookings.GetByID(ctx, id)
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.UpdateStatus", "bookingID", id, "status", status)

	if _, err := domain.ParseBookingStatus(string(status)); err != nil {
		logger.ExitMethodWithError("bookingService.UpdateStatus", err, "bookingID", id)
		return nil, err
	}
	b, err := s.repos.Bookings.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("bookingService.UpdateStatus", err, "bookingID", id)
		return nil, err
	}
	if b.Status == status {
		logger.ExitMethod("bookingService.UpdateStatus", "bookingID", id, "unchanged", true)
		return b, nil
	}
	if !domain.CanTransition(b.Status, status) {
		err := fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.Status, status)
		logger.ExitMethodWithError("bookingService.UpdateStatus", err, "bookingID", id)
		return nil, err
	}

	if err := s.repos.Bookings.UpdateStatus(ctx, id, status); err != nil {
		logger.ExitMethodWithError("bookingService.UpdateStatus", err, "bookingID", id)
		return nil, err
	}
	s.cache.Invalidate(ctx, b.EquipmentID)

	b.Status = status
	b.UpdatedAt = s.clock.now()
	logger.ExitMethod("bookingService.UpdateStatus", "bookingID", id, "status", status)
	return b, nil
}

// Reschedule moves a live booking to a new interval. The stored price snapshot is kept.
func (s *bookingService) Reschedule(ctx context.Context, id string, interval domain.Interval) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.Reschedule", "bookingID", id, "interval", interval.String())

	b, err := s.reschedule(ctx, id, interval)
	if domain.IsSerializationConflict(err) {
		logger.Warn("Reschedule lost a serializable race, retrying once", "bookingID", id, "error", err)
		b, err = s.reschedule(ctx, id, interval)
	}
	if err != nil {
		logger.ExitMethodWithError("bookingService.Reschedule", err, "bookingID", id)
		return nil, err
	}

	s.cache.Invalidate(ctx, b.EquipmentID)
	logger.ExitMethod("bookingService.Reschedule", "bookingID", id)
	return b, nil
}

func (s *bookingService) reschedule(ctx context.Context, id string, interval domain.Interval) (*domain.Booking, error) {
	b, err := s.repos.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminal(b.Status) {
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", domain.ErrInvalidTransition, b.Status)
	}

	verdict, err := s.resolver.check(ctx, b.EquipmentID, interval, b.ID, false)
	if err != nil {
		return nil, err
	}
	if !verdict.IsAvailable {
		return nil, &domain.OverlapError{EquipmentID: b.EquipmentID, Interval: interval, Detail: "equipment is not available"}
	}

	equipment, err := s.repos.Equipment.GetByID(ctx, b.EquipmentID)
	if err != nil {
		return nil, err
	}
	before, after := s.resolver.buffers(equipment)
	if err := s.repos.Bookings.UpdateInterval(ctx, id, interval, domain.WithBuffer(interval, before, after)); err != nil {
		return nil, err
	}

	b.Interval = interval
	b.UpdatedAt = s.clock.now()
	return b, nil
}

// ReleaseStalePending cancels checkouts that never left pending, so they stop
// holding the unit.
func (s *bookingService) ReleaseStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	logger.EnterMethod("bookingService.ReleaseStalePending", "olderThan", olderThan)

	stale, err := s.repos.Bookings.ListStalePending(ctx, s.clock.now().Add(-olderThan))
	if err != nil {
		logger.ExitMethodWithError("bookingService.ReleaseStalePending", err)
		return 0, err
	}

	released := 0
	for _, b := range stale {
		if err := s.repos.Bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusCancelled); err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			logger.ExitMethodWithError("bookingService.ReleaseStalePending", err, "bookingID", b.ID, "released", released)
			return released, err
		}
		s.cache.Invalidate(ctx, b.EquipmentID)
		released++
	}

	logger.ExitMethod("bookingService.ReleaseStalePending", "released", released)
	return released, nil
}
