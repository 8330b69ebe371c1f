package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"equiprent-backend/internal/cache"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("equiprent-backend/internal/service")

// alternativeOffsets are tried earlier and later, in this order.
var alternativeOffsets = []int{1, 2, 3, 7, 14}

type availabilityService struct {
	repos repository.Repositories
	cache cache.VerdictCache
	cfg   config.AvailabilityConfig
	clock Clock
}

func NewAvailabilityService(repos repository.Repositories, vc cache.VerdictCache, cfg config.AvailabilityConfig, clock Clock) AvailabilityService {
	return newAvailabilityService(repos, vc, cfg, clock)
}

func newAvailabilityService(repos repository.Repositories, vc cache.VerdictCache, cfg config.AvailabilityConfig, clock Clock) *availabilityService {
	if vc == nil {
		vc = cache.Nop{}
	}
	return &availabilityService{repos: repos, cache: vc, cfg: cfg, clock: clock}
}

func startSpan(ctx context.Context, name, equipmentID string, iv domain.Interval) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("equipment.id", equipmentID),
		attribute.String("interval.start", iv.Start.Format(time.RFC3339)),
		attribute.String("interval.end", iv.End.Format(time.RFC3339)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// validateRequest applies the request policy: well-formed interval, no past
// start, bounded length.
func (s *availabilityService) validateRequest(equipmentID string, iv domain.Interval) error {
	if equipmentID == "" {
		return domain.ErrMissingEquipmentID
	}
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s is not before end %s", domain.ErrInvalidInterval,
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	if iv.Start.Before(s.clock.now()) {
		return domain.ErrPastStart
	}
	if s.cfg.MaxRentalDays > 0 && iv.Days() > s.cfg.MaxRentalDays {
		return fmt.Errorf("%w: %d days requested, at most %d allowed", domain.ErrRentalTooLong, iv.Days(), s.cfg.MaxRentalDays)
	}
	return nil
}

func (s *availabilityService) buffers(e *domain.Equipment) (time.Duration, time.Duration) {
	return e.Buffers(s.cfg.BufferBefore, s.cfg.BufferAfter)
}

func (s *availabilityService) CheckAvailability(ctx context.Context, equipmentID string, requested domain.Interval, excludeBookingID string) (*domain.AvailabilityVerdict, error) {
	logger.EnterMethod("availabilityService.CheckAvailability", "equipmentID", equipmentID, "requested", requested.String(), "excludeBookingID", excludeBookingID)
	ctx, span := startSpan(ctx, "availability.check", equipmentID, requested)

	v, err := s.check(ctx, equipmentID, requested, excludeBookingID, true)
	endSpan(span, err)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.CheckAvailability", err, "equipmentID", equipmentID)
		return nil, err
	}
	logger.ExitMethod("availabilityService.CheckAvailability", "equipmentID", equipmentID, "isAvailable", v.IsAvailable,
		"conflicts", len(v.ConflictingBookings), "blackouts", len(v.BlackoutDates))
	return v, nil
}

// check runs the resolver. useCache is false on write paths, which must see the store.
func (s *availabilityService) check(ctx context.Context, equipmentID string, requested domain.Interval, excludeBookingID string, useCache bool) (*domain.AvailabilityVerdict, error) {
	if err := s.validateRequest(equipmentID, requested); err != nil {
		return nil, err
	}

	key := cache.Key{EquipmentID: equipmentID, Interval: requested, ExcludeBookingID: excludeBookingID}
	gen := cache.NoGeneration
	if useCache {
		cached, g, ok := s.cache.Get(ctx, key)
		if ok {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		gen = g
	}

	equipment, err := s.repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	before, after := s.buffers(equipment)
	padded := domain.WithBuffer(requested, before, after)

	bookings, err := s.repos.Bookings.ListOccupying(ctx, equipmentID, padded, excludeBookingID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.repos.Blocks.List(ctx, equipmentID, padded)
	if err != nil {
		return nil, err
	}

	v := &domain.AvailabilityVerdict{
		EquipmentID:         equipmentID,
		Requested:           requested,
		IsAvailable:         len(bookings) == 0 && len(blocks) == 0,
		ConflictingBookings: bookings,
		BlackoutDates:       make([]domain.Interval, 0, len(blocks)),
	}
	if v.ConflictingBookings == nil {
		v.ConflictingBookings = []domain.Booking{}
	}
	for _, b := range blocks {
		v.BlackoutDates = append(v.BlackoutDates, b.Interval)
	}

	if !v.IsAvailable {
		known := make([]domain.Interval, 0, len(bookings)+len(blocks))
		for _, b := range bookings {
			known = append(known, b.Interval)
		}
		known = append(known, v.BlackoutDates...)

		next, err := s.nextAvailable(ctx, equipmentID, requested, excludeBookingID, before, after, known)
		if err != nil {
			return nil, err
		}
		v.NextAvailableDate = next
	}

	if useCache {
		s.cache.Set(ctx, key, gen, v)
	}
	return v, nil
}

// occupied returns every booking and block interval overlapping window.
func (s *availabilityService) occupied(ctx context.Context, equipmentID string, window domain.Interval, excludeBookingID string) ([]domain.Interval, error) {
	bookings, err := s.repos.Bookings.ListOccupying(ctx, equipmentID, window, excludeBookingID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.repos.Blocks.List(ctx, equipmentID, window)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Interval, 0, len(bookings)+len(blocks))
	for _, b := range bookings {
		out = append(out, b.Interval)
	}
	for _, b := range blocks {
		out = append(out, b.Interval)
	}
	return out, nil
}

// nextAvailable sweeps candidate starts in ascending order. A candidate is
// free when the padded slot [c, c+duration) touches none of the known items;
// it is then confirmed against the store, since items outside the original
// window were never loaded. Items found by that re-check join the known set
// and the sweep resumes, so every returned date was verified by the store.
func (s *availabilityService) nextAvailable(ctx context.Context, equipmentID string, requested domain.Interval, excludeBookingID string,
	before, after time.Duration, known []domain.Interval) (*time.Time, error) {
	duration := requested.Duration()
	limit := requested.Start.Add(s.cfg.NextAvailableHorizon)

	for {
		c, ok := earliestFree(requested, known, duration, before, after)
		if !ok || (s.cfg.NextAvailableHorizon > 0 && c.After(limit)) {
			return nil, nil
		}
		slot := domain.WithBuffer(domain.Interval{Start: c, End: c.Add(duration)}, before, after)
		found, err := s.occupied(ctx, equipmentID, slot, excludeBookingID)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return &c, nil
		}
		known = append(known, found...)
	}
}

// earliestFree considers requested.End and every item end shifted by the
// leading buffer, keeping only candidates after requested.Start.
func earliestFree(requested domain.Interval, known []domain.Interval, duration, before, after time.Duration) (time.Time, bool) {
	candidates := []time.Time{requested.End}
	for _, iv := range known {
		c := iv.End.Add(max(before, 0))
		if c.After(requested.Start) {
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	for _, c := range candidates {
		slot := domain.WithBuffer(domain.Interval{Start: c, End: c.Add(duration)}, before, after)
		free := true
		for _, iv := range known {
			if domain.Overlaps(slot, iv) {
				free = false
				break
			}
		}
		if free {
			return c, true
		}
	}
	return time.Time{}, false
}

func (s *availabilityService) SuggestAlternatives(ctx context.Context, equipmentID string, requested domain.Interval, limit int) ([]domain.Alternative, error) {
	logger.EnterMethod("availabilityService.SuggestAlternatives", "equipmentID", equipmentID, "requested", requested.String())
	ctx, span := startSpan(ctx, "availability.alternatives", equipmentID, requested)

	if limit <= 0 {
		limit = s.cfg.MaxAlternatives
	}
	if limit <= 0 {
		limit = len(alternativeOffsets) * 2
	}

	var out []domain.Alternative
	var err error
	now := s.clock.now()
	for _, offset := range alternativeOffsets {
		shift := time.Duration(offset) * 24 * time.Hour
		for _, dir := range []int{-1, 1} {
			if len(out) >= limit {
				break
			}
			candidate := requested.Shift(time.Duration(dir) * shift)
			if candidate.Start.Before(now) {
				continue
			}
			var v *domain.AvailabilityVerdict
			v, err = s.check(ctx, equipmentID, candidate, "", true)
			if err != nil {
				endSpan(span, err)
				logger.ExitMethodWithError("availabilityService.SuggestAlternatives", err, "equipmentID", equipmentID)
				return nil, err
			}
			if v.IsAvailable {
				out = append(out, domain.Alternative{Interval: candidate, Reason: offsetLabel(offset, dir)})
			}
		}
	}

	endSpan(span, nil)
	logger.ExitMethod("availabilityService.SuggestAlternatives", "equipmentID", equipmentID, "count", len(out))
	return out, nil
}

func offsetLabel(days, dir int) string {
	unit := "day"
	if days > 1 {
		unit = "days"
	}
	when := "later"
	if dir < 0 {
		when = "earlier"
	}
	return fmt.Sprintf("%d %s %s", days, unit, when)
}
