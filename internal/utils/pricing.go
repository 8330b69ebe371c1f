package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// RateBreakdown is the tier mix chosen for a rental and its cost in cents.
type RateBreakdown struct {
	Months     int   `json:"months"`
	Weeks      int   `json:"weeks"`
	Days       int   `json:"days"`
	MonthsCost int64 `json:"months_cost"`
	WeeksCost  int64 `json:"weeks_cost"`
	DaysCost   int64 `json:"days_cost"`
	TotalCost  int64 `json:"total_cost"`
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// ParseTimestamp accepts RFC3339 or a bare yyyy-mm-dd (midnight UTC).
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: expected RFC3339 or yyyy-mm-dd", s)
	}
	return d.Time(), nil
}

// BlendedRate returns the cheapest mix of 30-day months, 7-day weeks and
// single days covering days. A tier may cover more days than remain when
// that is cheaper. The result never exceeds days × daily.
// Ties go to the larger tiers.
func BlendedRate(days int, rates domain.Rates) RateBreakdown {
	if days <= 0 {
		return RateBreakdown{}
	}

	maxMonths := 0
	if rates.Monthly > 0 {
		maxMonths = ceilDiv(days, daysPerMonth)
	}

	best := RateBreakdown{Days: days, DaysCost: int64(days) * rates.Daily, TotalCost: int64(days) * rates.Daily}
	for m := maxMonths; m >= 0; m-- {
		afterMonths := max(0, days-m*daysPerMonth)
		maxWeeks := 0
		if rates.Weekly > 0 {
			maxWeeks = ceilDiv(afterMonths, daysPerWeek)
		}
		for w := maxWeeks; w >= 0; w-- {
			d := max(0, afterMonths-w*daysPerWeek)
			c := RateBreakdown{
				Months:     m,
				Weeks:      w,
				Days:       d,
				MonthsCost: int64(m) * rates.Monthly,
				WeeksCost:  int64(w) * rates.Weekly,
				DaysCost:   int64(d) * rates.Daily,
			}
			c.TotalCost = c.MonthsCost + c.WeeksCost + c.DaysCost
			if c.TotalCost < best.TotalCost || (c.TotalCost == best.TotalCost && largerTiers(c, best)) {
				best = c
			}
		}
	}
	return best
}

func largerTiers(a, b RateBreakdown) bool {
	if a.Months != b.Months {
		return a.Months > b.Months
	}
	return a.Weeks > b.Weeks
}

// ApplyMultiplier scales cents by m, rounding half away from zero.
func ApplyMultiplier(cents int64, m float64) int64 {
	return int64(math.Round(float64(cents) * m))
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
