package entity

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAnnual:
		return true
	default:
		return false
	}
}

// Day drops the clock part of t and returns its calendar date as midnight UTC.
// The date is taken in t's own location, so callers pass times already in the
// zone that defines "today".
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Start returns the first day of the period containing d.
// Weeks start on Monday.
func (p Period) Start(d time.Time) time.Time {
	d = Day(d)
	switch p {
	case PeriodWeekly:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodAnnual:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// Next returns the start of the period after the one containing d.
func (p Period) Next(d time.Time) time.Time {
	s := p.Start(d)
	switch p {
	case PeriodWeekly:
		return s.AddDate(0, 0, 7)
	case PeriodMonthly:
		return s.AddDate(0, 1, 0)
	case PeriodAnnual:
		return s.AddDate(1, 0, 0)
	default:
		return s.AddDate(0, 0, 1)
	}
}

// Prev returns the start of the period before the one containing d.
func (p Period) Prev(d time.Time) time.Time {
	s := p.Start(d)
	switch p {
	case PeriodWeekly:
		return s.AddDate(0, 0, -7)
	case PeriodMonthly:
		return s.AddDate(0, -1, 0)
	case PeriodAnnual:
		return s.AddDate(-1, 0, 0)
	default:
		return s.AddDate(0, 0, -1)
	}
}

// Between counts the periods touched by the inclusive range [from, to].
// It is 0 when to is before from.
func (p Period) Between(from, to time.Time) int {
	a, b := p.Start(from), p.Start(to)
	if b.Before(a) {
		return 0
	}

	switch p {
	case PeriodWeekly:
		return int(b.Sub(a).Hours()/24)/7 + 1
	case PeriodMonthly:
		return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month()) + 1
	case PeriodAnnual:
		return b.Year() - a.Year() + 1
	default:
		return int(b.Sub(a).Hours()/24) + 1
	}
}
