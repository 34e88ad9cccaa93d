package entity

import (
	"errors"
	"time"
)

var ErrEndBeforeStart = errors.New("calendar: end_at is before start_at")

const DefaultColor = "#3b82f6"

type Event struct {
	ID                  int64
	UserID              int64
	Title               string
	Description         string
	Location            string
	StartAt             time.Time
	EndAt               time.Time
	AllDay              bool
	Color               string
	RemindBeforeMinutes *int32
	RemindedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Normalize enforces the time invariants. All-day events are widened to
// [00:00 of the start date, 00:00 after the end date) in loc. An end at
// exactly midnight after the start is taken as already exclusive.
func (e *Event) Normalize(loc *time.Location) error {
	return e.normalize(loc, false)
}

// NormalizeDates is Normalize for an end that names the last day itself,
// as a plain date does. The end always moves to the following midnight.
func (e *Event) NormalizeDates(loc *time.Location) error {
	return e.normalize(loc, true)
}

func (e *Event) normalize(loc *time.Location, inclusiveEnd bool) error {
	if e.EndAt.Before(e.StartAt) {
		return ErrEndBeforeStart
	}
	if !e.AllDay {
		return nil
	}

	end := e.EndAt.In(loc)
	e.StartAt = Midnight(e.StartAt.In(loc), loc)
	endDay := Midnight(end, loc)
	if inclusiveEnd || !endDay.Equal(end) || !endDay.After(e.StartAt) {
		endDay = endDay.AddDate(0, 0, 1)
	}
	e.EndAt = endDay

	return nil
}

// Midnight returns 00:00 in loc of the calendar date t carries, read in t's
// own zone. Plain dates parsed as UTC keep their day this way.
func Midnight(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// RemindAt is when the reminder is due, or nil when the event has none.
func (e *Event) RemindAt() *time.Time {
	if e.RemindBeforeMinutes == nil {
		return nil
	}
	at := e.StartAt.Add(-time.Duration(*e.RemindBeforeMinutes) * time.Minute)
	return &at
}

// Overlaps reports whether the event intersects the half-open window [from, to).
func (e *Event) Overlaps(from, to time.Time) bool {
	return e.StartAt.Before(to) && e.EndAt.After(from)
}

type EventFilter struct {
	UserID int64
	From   time.Time
	To     time.Time
	Limit  int32
}
