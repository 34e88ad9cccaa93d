package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system time in a fixed location.
type TimeClocker struct {
	loc *time.Location
}

// New returns a TimeClocker in the local zone.
func New() *TimeClocker {
	return &TimeClocker{loc: time.Local}
}

// NewIn returns a TimeClocker whose Now is expressed in loc. Period
// boundaries such as "today" and "this week" follow that zone.
func NewIn(loc *time.Location) *TimeClocker {
	if loc == nil {
		loc = time.Local
	}
	return &TimeClocker{loc: loc}
}

// Now returns the current system time.
func (c *TimeClocker) Now() time.Time {
	if c == nil || c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}

// Location returns the zone Now reports in.
func (c *TimeClocker) Location() *time.Location {
	if c == nil || c.loc == nil {
		return time.Local
	}
	return c.loc
}
