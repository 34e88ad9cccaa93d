package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func TestDay_UsesLocationOfInput(t *testing.T) {
	// Arrange
	jakarta := time.FixedZone("WIB", 7*3600)
	late := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	// Act
	utcDay := Day(late)
	localDay := Day(late.In(jakarta))

	// Assert
	assert.Equal(t, date("2026-03-01"), utcDay)
	assert.Equal(t, date("2026-03-02"), localDay)
}

func TestPeriod_Start(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		in     string
		want   string
	}{
		{name: "daily", period: PeriodDaily, in: "2026-05-14", want: "2026-05-14"},
		{name: "weekly midweek", period: PeriodWeekly, in: "2026-05-14", want: "2026-05-11"},
		{name: "weekly sunday belongs to previous monday", period: PeriodWeekly, in: "2026-05-17", want: "2026-05-11"},
		{name: "weekly monday", period: PeriodWeekly, in: "2026-05-11", want: "2026-05-11"},
		{name: "weekly across year", period: PeriodWeekly, in: "2027-01-01", want: "2026-12-28"},
		{name: "monthly", period: PeriodMonthly, in: "2026-02-28", want: "2026-02-01"},
		{name: "annual", period: PeriodAnnual, in: "2026-12-31", want: "2026-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, date(tt.want), tt.period.Start(date(tt.in)))
		})
	}
}

func TestPeriod_NextPrev(t *testing.T) {
	tests := []struct {
		period Period
		in     string
		prev   string
		next   string
	}{
		{period: PeriodDaily, in: "2026-03-01", prev: "2026-02-28", next: "2026-03-02"},
		{period: PeriodWeekly, in: "2026-03-04", prev: "2026-02-23", next: "2026-03-09"},
		{period: PeriodMonthly, in: "2026-01-31", prev: "2025-12-01", next: "2026-02-01"},
		{period: PeriodAnnual, in: "2026-07-15", prev: "2025-01-01", next: "2027-01-01"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, date(tt.prev), tt.period.Prev(date(tt.in)))
			assert.Equal(t, date(tt.next), tt.period.Next(date(tt.in)))
		})
	}
}

func TestPeriod_Between(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		from   string
		to     string
		want   int
	}{
		{name: "same day", period: PeriodDaily, from: "2026-01-01", to: "2026-01-01", want: 1},
		{name: "daily over leap day", period: PeriodDaily, from: "2028-02-27", to: "2028-03-01", want: 4},
		{name: "reversed", period: PeriodDaily, from: "2026-01-02", to: "2026-01-01", want: 0},
		{name: "weekly partial weeks", period: PeriodWeekly, from: "2026-05-17", to: "2026-05-18", want: 2},
		{name: "monthly across years", period: PeriodMonthly, from: "2025-11-30", to: "2026-02-01", want: 4},
		{name: "annual", period: PeriodAnnual, from: "2024-06-01", to: "2026-01-01", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.period.Between(date(tt.from), date(tt.to)))
		})
	}
}

func TestGoal_Achieve(t *testing.T) {
	tests := []struct {
		name        string
		goal        Goal
		today       string
		wantErr     error
		wantPeriod  string
		wantCurrent int32
		wantMax     int32
	}{
		{
			name:        "first achievement starts streak",
			goal:        Goal{Period: PeriodDaily, StartDate: date("2026-01-01"), Status: StatusActive},
			today:       "2026-01-05",
			wantPeriod:  "2026-01-05",
			wantCurrent: 1,
			wantMax:     1,
		},
		{
			name: "consecutive day increments",
			goal: Goal{
				Period: PeriodDaily, StartDate: date("2026-01-01"), Status: StatusActive,
				CurrentStreak: 3, MaxStreak: 3, LastAchievedOn: datePtr("2026-01-04"),
			},
			today:       "2026-01-05",
			wantPeriod:  "2026-01-05",
			wantCurrent: 4,
			wantMax:     4,
		},
		{
			name: "missed day resets and keeps max",
			goal: Goal{
				Period: PeriodDaily, StartDate: date("2026-01-01"), Status: StatusActive,
				CurrentStreak: 3, MaxStreak: 7, LastAchievedOn: datePtr("2026-01-02"),
			},
			today:       "2026-01-05",
			wantPeriod:  "2026-01-05",
			wantCurrent: 1,
			wantMax:     7,
		},
		{
			name: "weekly consecutive across month",
			goal: Goal{
				Period: PeriodWeekly, StartDate: date("2026-01-01"), Status: StatusActive,
				CurrentStreak: 2, MaxStreak: 2, LastAchievedOn: datePtr("2026-01-26"),
			},
			today:       "2026-02-06",
			wantPeriod:  "2026-02-02",
			wantCurrent: 3,
			wantMax:     3,
		},
		{
			name: "same period is rejected",
			goal: Goal{
				Period: PeriodMonthly, StartDate: date("2026-01-01"), Status: StatusActive,
				CurrentStreak: 1, MaxStreak: 1, LastAchievedOn: datePtr("2026-03-01"),
			},
			today:   "2026-03-20",
			wantErr: ErrAlreadyAchieved,
		},
		{
			name: "later period already achieved",
			goal: Goal{
				Period: PeriodDaily, StartDate: date("2026-01-01"), Status: StatusActive,
				CurrentStreak: 1, MaxStreak: 1, LastAchievedOn: datePtr("2026-03-21"),
			},
			today:   "2026-03-20",
			wantErr: ErrOutOfOrder,
		},
		{
			name:    "archived",
			goal:    Goal{Period: PeriodDaily, StartDate: date("2026-01-01"), Status: StatusArchived},
			today:   "2026-01-05",
			wantErr: ErrGoalArchived,
		},
		{
			name:    "before start",
			goal:    Goal{Period: PeriodDaily, StartDate: date("2026-02-01"), Status: StatusActive},
			today:   "2026-01-31",
			wantErr: ErrNotStarted,
		},
		{
			name:    "after end",
			goal:    Goal{Period: PeriodDaily, StartDate: date("2026-01-01"), EndDate: datePtr("2026-01-31"), Status: StatusActive},
			today:   "2026-02-01",
			wantErr: ErrEnded,
		},
		{
			name:        "on end date",
			goal:        Goal{Period: PeriodDaily, StartDate: date("2026-01-01"), EndDate: datePtr("2026-01-31"), Status: StatusActive},
			today:       "2026-01-31",
			wantPeriod:  "2026-01-31",
			wantCurrent: 1,
			wantMax:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			g := tt.goal
			before := tt.goal

			// Act
			p, err := g.Achieve(date(tt.today))

			// Assert
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, date(tt.wantPeriod), p)
			assert.Equal(t, tt.wantCurrent, g.CurrentStreak)
			assert.Equal(t, tt.wantMax, g.MaxStreak)
			require.NotNil(t, g.LastAchievedOn)
			assert.Equal(t, p, *g.LastAchievedOn)
		})
	}
}

func TestGoal_EffectiveStreak(t *testing.T) {
	g := Goal{Period: PeriodDaily, CurrentStreak: 5, LastAchievedOn: datePtr("2026-04-10")}

	assert.Equal(t, int32(5), g.EffectiveStreak(date("2026-04-10")))
	assert.Equal(t, int32(5), g.EffectiveStreak(date("2026-04-11")))
	assert.Equal(t, int32(0), g.EffectiveStreak(date("2026-04-12")))
	assert.True(t, g.StreakBroken(date("2026-04-12")))

	weekly := Goal{Period: PeriodWeekly, CurrentStreak: 2, LastAchievedOn: datePtr("2026-04-06")}
	assert.Equal(t, int32(2), weekly.EffectiveStreak(date("2026-04-19")))
	assert.Equal(t, int32(0), weekly.EffectiveStreak(date("2026-04-20")))
}

func TestGoal_StatsWindow(t *testing.T) {
	g := Goal{Period: PeriodDaily, StartDate: date("2026-01-10"), EndDate: datePtr("2026-01-20")}

	start, end, ok := g.StatsWindow(time.Time{}, time.Time{}, date("2026-01-15"))
	require.True(t, ok)
	assert.Equal(t, date("2026-01-10"), start)
	assert.Equal(t, date("2026-01-15"), end)

	start, end, ok = g.StatsWindow(date("2026-01-01"), date("2026-02-01"), date("2026-03-01"))
	require.True(t, ok)
	assert.Equal(t, date("2026-01-10"), start)
	assert.Equal(t, date("2026-01-20"), end)

	_, _, ok = g.StatsWindow(time.Time{}, time.Time{}, date("2026-01-01"))
	assert.False(t, ok)
}

func TestAchievementRate(t *testing.T) {
	assert.Equal(t, 0.0, AchievementRate(0, 0))
	assert.Equal(t, 100.0, AchievementRate(4, 4))
	assert.Equal(t, 33.33, AchievementRate(1, 3))
	assert.Equal(t, 66.67, AchievementRate(2, 3))
}
