package domain

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Interval is a half-open UTC time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval normalizes both bounds to UTC and rejects empty or inverted ranges.
func NewInterval(start, end time.Time) (Interval, error) {
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// MustInterval is NewInterval for literals known to be valid.
func MustInterval(start, end time.Time) Interval {
	iv, err := NewInterval(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Overlaps reports whether a and b share at least one instant.
// Touching intervals ([a, b) and [b, c)) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Overlaps is the method form of the package-level Overlaps.
func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv, other)
}

// WithBuffer widens iv by before on the left and after on the right.
// Negative buffers are treated as zero.
func WithBuffer(iv Interval, before, after time.Duration) Interval {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	return Interval{Start: iv.Start.Add(-before), End: iv.End.Add(after)}
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Days returns the number of started 24h periods, never less than one.
func (iv Interval) Days() int {
	d := iv.Duration()
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Shift moves both bounds by d.
func (iv Interval) Shift(d time.Duration) Interval {
	return Interval{Start: iv.Start.Add(d), End: iv.End.Add(d)}
}

func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}
