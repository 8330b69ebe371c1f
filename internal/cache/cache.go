// Package cache holds availability verdicts between writes. Entries are keyed
// by a per-equipment generation so one INCR invalidates every cached window of
// that unit.
package cache

import (
	"context"
	"fmt"

	"equiprent-backend/internal/domain"
)

// VerdictCache stores verdicts per generation. Get returns the generation it
// read; callers pass it back to Set so a verdict computed before a write is
// filed under the generation that write retired.
type VerdictCache interface {
	Get(ctx context.Context, key Key) (*domain.AvailabilityVerdict, Generation, bool)
	Set(ctx context.Context, key Key, gen Generation, v *domain.AvailabilityVerdict)
	Invalidate(ctx context.Context, equipmentID string)
	Ping(ctx context.Context) error
}

// Generation is the per-equipment invalidation counter observed by Get.
type Generation int64

// NoGeneration means the counter could not be read. Set ignores it.
const NoGeneration Generation = -1

// Key identifies one resolver call.
type Key struct {
	EquipmentID      string
	Interval         domain.Interval
	ExcludeBookingID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%d:%s", k.EquipmentID, k.Interval.Start.UnixNano(), k.Interval.End.UnixNano(), k.ExcludeBookingID)
}

// Nop never hits. Used when no Redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context, Key) (*domain.AvailabilityVerdict, Generation, bool) {
	return nil, NoGeneration, false
}
func (Nop) Set(context.Context, Key, Generation, *domain.AvailabilityVerdict) {}
func (Nop) Invalidate(context.Context, string)                                {}
func (Nop) Ping(context.Context) error                                        { return nil }
