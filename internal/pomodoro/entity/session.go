package entity

import (
	"errors"
	"time"
)

var ErrNotRunning = errors.New("pomodoro: session is not running")

type Kind string

const (
	KindFocus      Kind = "focus"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindFocus, KindShortBreak, KindLongBreak:
		return true
	}
	return false
}

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Session struct {
	ID             int64
	UserID         int64
	Kind           Kind
	Status         Status
	PlannedMinutes int32
	TodoID         int64
	GoalID         int64
	StartedAt      time.Time
	EndedAt        *time.Time
}

// PlannedEnd is when the timer runs out.
func (s *Session) PlannedEnd() time.Time {
	return s.StartedAt.Add(time.Duration(s.PlannedMinutes) * time.Minute)
}

// RemainingSeconds is never negative.
func (s *Session) RemainingSeconds(now time.Time) int64 {
	left := s.PlannedEnd().Sub(now)
	if left <= 0 {
		return 0
	}
	return int64((left + time.Second - 1) / time.Second)
}

// Finish moves a running session to status at now.
func (s *Session) Finish(status Status, now time.Time) error {
	if s.Status != StatusRunning {
		return ErrNotRunning
	}
	s.Status = status
	s.EndedAt = &now
	return nil
}

// FocusMinutes is the focused time credited on completion: elapsed whole
// minutes capped at the plan, and at least one.
func (s *Session) FocusMinutes() int32 {
	if s.EndedAt == nil {
		return 0
	}
	elapsed := int32(s.EndedAt.Sub(s.StartedAt) / time.Minute)
	return max(min(elapsed, s.PlannedMinutes), 1)
}

type DayStat struct {
	Date         time.Time
	Sessions     int
	FocusMinutes int
}

type Stats struct {
	From              time.Time
	To                time.Time
	TotalSessions     int
	TotalFocusMinutes int
	Days              []DayStat
}

// BuildStats buckets completed focus sessions per calendar day of loc over
// the inclusive day range [from, to]. Every day in the range is present.
func BuildStats(sessions []Session, from, to time.Time, loc *time.Location) Stats {
	from = dayIn(from, loc)
	to = dayIn(to, loc)

	st := Stats{From: from, To: to, Days: []DayStat{}}
	index := map[time.Time]int{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		index[d] = len(st.Days)
		st.Days = append(st.Days, DayStat{Date: d})
	}

	for _, s := range sessions {
		if s.Kind != KindFocus || s.Status != StatusCompleted {
			continue
		}
		i, ok := index[dayIn(s.StartedAt, loc)]
		if !ok {
			continue
		}
		m := int(s.FocusMinutes())
		st.Days[i].Sessions++
		st.Days[i].FocusMinutes += m
		st.TotalSessions++
		st.TotalFocusMinutes += m
	}

	return st
}

func dayIn(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

type SessionFilter struct {
	UserID int64
	From   time.Time
	To     time.Time
	Kind   Kind
	Status Status
	Limit  int32
	Offset int32
}
