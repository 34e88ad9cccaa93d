package entity

import (
	"errors"
	"math"
	"time"
)

var (
	ErrAlreadyAchieved = errors.New("goal: period already achieved")
	ErrGoalArchived    = errors.New("goal: goal is archived")
	ErrNotStarted      = errors.New("goal: goal has not started yet")
	ErrEnded           = errors.New("goal: goal has ended")
	ErrOutOfOrder      = errors.New("goal: a later period is already achieved")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusArchived
}

// Goal is a target tracked once per period. Dates are calendar days stored
// as midnight UTC (see Day).
type Goal struct {
	ID             int64
	UserID         int64
	Title          string
	Description    string
	Period         Period
	StartDate      time.Time
	EndDate        *time.Time
	Status         Status
	CurrentStreak  int32
	MaxStreak      int32
	LastAchievedOn *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Achieve records an achievement for the period containing today and
// updates the streak counters. It returns the start of that period.
//
// The goal is left untouched when an error is returned.
func (g *Goal) Achieve(today time.Time) (time.Time, error) {
	today = Day(today)

	if g.Status == StatusArchived {
		return time.Time{}, ErrGoalArchived
	}
	if today.Before(g.StartDate) {
		return time.Time{}, ErrNotStarted
	}
	if g.EndDate != nil && today.After(*g.EndDate) {
		return time.Time{}, ErrEnded
	}

	p := g.Period.Start(today)
	consecutive := false
	if g.LastAchievedOn != nil {
		last := g.Period.Start(*g.LastAchievedOn)
		switch {
		case last.Equal(p):
			return time.Time{}, ErrAlreadyAchieved
		case last.After(p):
			return time.Time{}, ErrOutOfOrder
		}
		consecutive = last.Equal(g.Period.Prev(p))
	}

	if consecutive {
		g.CurrentStreak++
	} else {
		g.CurrentStreak = 1
	}
	g.MaxStreak = max(g.MaxStreak, g.CurrentStreak)
	g.LastAchievedOn = &p

	return p, nil
}

// StreakBroken reports whether at least one full period passed since the
// last achievement, which means the stored streak no longer holds.
func (g *Goal) StreakBroken(today time.Time) bool {
	if g.LastAchievedOn == nil {
		return g.CurrentStreak > 0
	}
	return g.Period.Start(*g.LastAchievedOn).Before(g.Period.Prev(today))
}

// EffectiveStreak is the streak as seen on today. The current period is
// still open, so a streak ending in the previous period counts.
func (g *Goal) EffectiveStreak(today time.Time) int32 {
	if g.StreakBroken(today) {
		return 0
	}
	return g.CurrentStreak
}

// StatsWindow clamps [from, to] to the life of the goal and to today.
// Zero bounds default to the start date and today. ok is false when the
// clamped window is empty.
func (g *Goal) StatsWindow(from, to, today time.Time) (start, end time.Time, ok bool) {
	start, end = g.StartDate, Day(today)
	if !from.IsZero() && Day(from).After(start) {
		start = Day(from)
	}
	if !to.IsZero() && Day(to).Before(end) {
		end = Day(to)
	}
	if g.EndDate != nil && g.EndDate.Before(end) {
		end = *g.EndDate
	}

	return start, end, !end.Before(start)
}

type Achievement struct {
	ID          int64
	GoalID      int64
	PeriodStart time.Time
	AchievedAt  time.Time
	Note        string
}

type Stats struct {
	CurrentStreak int32
	MaxStreak     int32
	Achieved      int
	TotalPeriods  int
	Rate          float64
	From          time.Time
	To            time.Time
}

// AchievementRate is achieved/total as a percentage rounded to 2 decimals.
func AchievementRate(achieved, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(achieved) / float64(total) * 100
	return math.Round(rate*100) / 100
}

type GoalFilter struct {
	UserID int64
	Status Status
	Period Period
	Limit  int32
	Offset int32
}
