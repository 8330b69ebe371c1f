package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(m time.Month, d, h int) time.Time {
	return time.Date(2026, m, d, h, 0, 0, 0, time.UTC)
}

func TestNewInterval(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		loc := time.FixedZone("AST", -4*3600)
		iv, err := NewInterval(time.Date(2026, 6, 10, 9, 0, 0, 0, loc), time.Date(2026, 6, 11, 9, 0, 0, 0, loc))
		require.NoError(t, err)
		assert.Equal(t, time.UTC, iv.Start.Location())
		assert.Equal(t, 13, iv.Start.Hour())
	})

	t.Run("End before start", func(t *testing.T) {
		_, err := NewInterval(date(6, 10, 9), date(6, 9, 9))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInterval))
		assert.True(t, IsInvalidRequest(err))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := NewInterval(date(6, 10, 9), date(6, 10, 9))
		assert.True(t, IsInvalidRequest(err))
	})
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"Disjoint", MustInterval(date(6, 1, 0), date(6, 2, 0)), MustInterval(date(6, 3, 0), date(6, 4, 0)), false},
		{"Touching", MustInterval(date(6, 1, 0), date(6, 2, 0)), MustInterval(date(6, 2, 0), date(6, 3, 0)), false},
		{"Partial", MustInterval(date(6, 10, 0), date(6, 15, 0)), MustInterval(date(6, 12, 0), date(6, 14, 0)), true},
		{"Contained", MustInterval(date(6, 1, 0), date(6, 30, 0)), MustInterval(date(6, 5, 0), date(6, 6, 0)), true},
		{"Identical", MustInterval(date(6, 1, 0), date(6, 2, 0)), MustInterval(date(6, 1, 0), date(6, 2, 0)), true},
		{"One hour shared", MustInterval(date(6, 1, 0), date(6, 2, 1)), MustInterval(date(6, 2, 0), date(6, 3, 0)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			// symmetric
			assert.Equal(t, Overlaps(tt.a, tt.b), Overlaps(tt.b, tt.a))
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
		})
	}
}

func TestOverlapSymmetryGrid(t *testing.T) {
	base := date(6, 1, 0)
	var ivs []Interval
	for s := 0; s < 6; s++ {
		for l := 1; l < 4; l++ {
			start := base.Add(time.Duration(s) * time.Hour)
			ivs = append(ivs, MustInterval(start, start.Add(time.Duration(l)*time.Hour)))
		}
	}
	for _, a := range ivs {
		for _, b := range ivs {
			assert.Equal(t, Overlaps(a, b), Overlaps(b, a), "a=%s b=%s", a, b)
		}
	}
}

func TestWithBuffer(t *testing.T) {
	iv := MustInterval(date(6, 10, 0), date(6, 15, 0))

	t.Run("Expands both sides", func(t *testing.T) {
		got := WithBuffer(iv, 2*time.Hour, 4*time.Hour)
		assert.Equal(t, date(6, 9, 22), got.Start)
		assert.Equal(t, date(6, 15, 4), got.End)
	})

	t.Run("Negative treated as zero", func(t *testing.T) {
		assert.Equal(t, iv, WithBuffer(iv, -time.Hour, -time.Hour))
	})

	t.Run("Turns touching into overlapping", func(t *testing.T) {
		next := MustInterval(date(6, 15, 0), date(6, 16, 0))
		assert.False(t, Overlaps(iv, next))
		assert.True(t, Overlaps(WithBuffer(iv, 0, time.Hour), next))
	})
}

func TestIntervalDays(t *testing.T) {
	assert.Equal(t, 5, MustInterval(date(7, 10, 0), date(7, 15, 0)).Days())
	assert.Equal(t, 1, MustInterval(date(7, 10, 9), date(7, 10, 17)).Days())
	assert.Equal(t, 2, MustInterval(date(7, 10, 9), date(7, 11, 10)).Days())
}

func TestIntervalContainsAndShift(t *testing.T) {
	iv := MustInterval(date(6, 10, 0), date(6, 11, 0))
	assert.True(t, iv.Contains(date(6, 10, 0)))
	assert.False(t, iv.Contains(date(6, 11, 0)))

	shifted := iv.Shift(48 * time.Hour)
	assert.Equal(t, date(6, 12, 0), shifted.Start)
	assert.Equal(t, iv.Duration(), shifted.Duration())
}
