package cli

import (
	"fmt"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/utils"
)

func parseInterval(start, end string) (domain.Interval, error) {
	if err := requireFlag("start", start); err != nil {
		return domain.Interval{}, err
	}
	if err := requireFlag("end", end); err != nil {
		return domain.Interval{}, err
	}
	s, err := utils.ParseTimestamp(start)
	if err != nil {
		return domain.Interval{}, err
	}
	e, err := utils.ParseTimestamp(end)
	if err != nil {
		return domain.Interval{}, err
	}
	return domain.NewInterval(s, e)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func formatInterval(iv domain.Interval) string {
	return formatTime(iv.Start) + " -> " + formatTime(iv.End)
}

// formatCents renders 123456 as $1,234.56.
func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	whole := fmt.Sprintf("%d", c/100)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%s$%s.%02d", sign, whole, c%100)
}
