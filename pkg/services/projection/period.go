package projection

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Period is a budget period. End is inclusive through its last second.
type Period struct {
	Start time.Time
	End   time.Time
}

// CurrentMonth returns the calendar month containing now, in UTC.
func CurrentMonth(now time.Time) Period {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastDay := start.AddDate(0, 1, -1)
	return Period{
		Start: start,
		End:   endOfDay(lastDay),
	}
}

// ParsePeriod parses YYYY-MM-DD bounds. Both or neither must be set; with
// neither, the current month is returned.
func ParsePeriod(start, end string, now time.Time) (Period, error) {
	if start == "" && end == "" {
		return CurrentMonth(now), nil
	}
	if start == "" || end == "" {
		return Period{}, fmt.Errorf("budget period needs both start and end, got start=%q end=%q", start, end)
	}

	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return Period{}, fmt.Errorf("invalid budget period start %q: %w", start, err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return Period{}, fmt.Errorf("invalid budget period end %q: %w", end, err)
	}
	if e.Before(s) {
		return Period{}, fmt.Errorf("budget period end %s is before start %s", end, start)
	}
	return Period{Start: s, End: endOfDay(e)}, nil
}

// RemainingHours returns whole hours left in the period, never negative.
func (p Period) RemainingHours(now time.Time) int64 {
	remaining := p.End.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Hour)
}

func (p Period) String() string {
	return fmt.Sprintf("%s to %s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
