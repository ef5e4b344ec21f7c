package engine

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the calendar size of a reporting bucket.
type Granularity int

const (
	Weekly Granularity = iota
	Monthly
	Quarterly
	Yearly
)

func (g Granularity) String() string {
	switch g {
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	case Quarterly:
		return "quarter"
	case Yearly:
		return "year"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "week", "month", "quarter", "year" and their
// adjective forms ("monthly", ...).
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "weekly":
		return Weekly, nil
	case "month", "monthly", "":
		return Monthly, nil
	case "quarter", "quarterly":
		return Quarterly, nil
	case "year", "yearly", "annual":
		return Yearly, nil
	default:
		return Monthly, fmt.Errorf("unknown granularity %q", s)
	}
}

// Start truncates a date to the first day of its bucket. Weeks start on Monday.
func (g Granularity) Start(t time.Time) time.Time {
	t = dayOf(t)
	switch g {
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7 // days since Monday
		return t.AddDate(0, 0, -offset)
	case Quarterly:
		quarter := (t.Month() - 1) / 3
		return time.Date(t.Year(), quarter*3+1, 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket following the one starting at start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Quarterly:
		return start.AddDate(0, 3, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Label is the human-readable name of the bucket starting at start.
func (g Granularity) Label(start time.Time) string {
	switch g {
	case Weekly:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Quarterly:
		return fmt.Sprintf("Q%d %d", (int(start.Month())-1)/3+1, start.Year())
	case Yearly:
		return fmt.Sprintf("%d", start.Year())
	default:
		return start.Format("January 2006")
	}
}
