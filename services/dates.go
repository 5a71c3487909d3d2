package services

import (
	"strings"
	"time"
)

// DateLayout is the wire format of business dates.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339. An empty string yields def.
func ParseDate(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return truncDay(def), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return truncDay(t), nil
}

// Period is an inclusive date range. Zero bounds are open.
type Period struct {
	From time.Time
	To   time.Time
}

// ParsePeriod parses optional bounds and checks ordering.
func ParsePeriod(from, to string) (Period, error) {
	var p Period
	var err error
	if strings.TrimSpace(from) != "" {
		if p.From, err = ParseDate(from, time.Time{}); err != nil {
			return p, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if p.To, err = ParseDate(to, time.Time{}); err != nil {
			return p, err
		}
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return p, validationf("data_fim must not be before data_inicio")
	}
	return p, nil
}

// CurrentMonth returns the period from the first to the last day of now's month.
func CurrentMonth(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: first, To: first.AddDate(0, 1, -1)}
}

// Days is the number of calendar days covered, both ends included.
func (p Period) Days() int {
	if p.From.IsZero() || p.To.IsZero() {
		return 0
	}
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

func truncDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
