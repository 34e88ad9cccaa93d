package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Normalize(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	newYork := time.FixedZone("EDT", -4*3600)

	tests := []struct {
		name      string
		event     Event
		loc       *time.Location
		dates     bool
		wantStart time.Time
		wantEnd   time.Time
		wantErr   error
	}{
		{
			name: "timed event untouched",
			event: Event{
				StartAt: time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC),
			},
			loc:       time.UTC,
			wantStart: time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "end before start",
			event: Event{
				StartAt: time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 14, 8, 0, 0, 0, time.UTC),
			},
			loc:     time.UTC,
			wantErr: ErrEndBeforeStart,
		},
		{
			name: "single all-day",
			event: Event{
				AllDay:  true,
				StartAt: time.Date(2026, 5, 14, 13, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 14, 13, 0, 0, 0, time.UTC),
			},
			loc:       time.UTC,
			wantStart: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "multi-day all-day",
			event: Event{
				AllDay:  true,
				StartAt: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 16, 18, 0, 0, 0, time.UTC),
			},
			loc:       time.UTC,
			wantStart: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "already normalized is stable",
			event: Event{
				AllDay:  true,
				StartAt: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC),
			},
			loc:       time.UTC,
			wantStart: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "uses server zone",
			event: Event{
				AllDay:  true,
				StartAt: time.Date(2026, 5, 14, 20, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 14, 20, 0, 0, 0, time.UTC),
			},
			loc:       jakarta,
			wantStart: time.Date(2026, 5, 15, 0, 0, 0, 0, jakarta),
			wantEnd:   time.Date(2026, 5, 16, 0, 0, 0, 0, jakarta),
		},
		{
			name: "date-only multi-day keeps last day",
			event: Event{
				AllDay:  true,
				StartAt: Midnight(time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), time.UTC),
				EndAt:   Midnight(time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC), time.UTC),
			},
			loc:       time.UTC,
			dates:     true,
			wantStart: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "date-only single day",
			event: Event{
				AllDay:  true,
				StartAt: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			},
			loc:       time.UTC,
			dates:     true,
			wantStart: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "date-only in negative offset zone keeps its day",
			event: Event{
				AllDay:  true,
				StartAt: Midnight(time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), newYork),
				EndAt:   Midnight(time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC), newYork),
			},
			loc:       newYork,
			dates:     true,
			wantStart: time.Date(2026, 5, 14, 0, 0, 0, 0, newYork),
			wantEnd:   time.Date(2026, 5, 17, 0, 0, 0, 0, newYork),
		},
		{
			name: "date-only end before start",
			event: Event{
				AllDay:  true,
				StartAt: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC),
			},
			loc:     time.UTC,
			dates:   true,
			wantErr: ErrEndBeforeStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			e := tt.event
			normalize := e.Normalize
			if tt.dates {
				normalize = e.NormalizeDates
			}

			// Act
			err := normalize(tt.loc)

			// Assert
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(e.StartAt), "start %s", e.StartAt)
			assert.True(t, tt.wantEnd.Equal(e.EndAt), "end %s", e.EndAt)
		})
	}
}

func TestMidnight(t *testing.T) {
	newYork := time.FixedZone("EDT", -4*3600)
	date := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)

	got := Midnight(date, newYork)

	assert.Equal(t, 14, got.Day())
	assert.True(t, time.Date(2026, 5, 14, 4, 0, 0, 0, time.UTC).Equal(got))
}

func TestEvent_Overlaps(t *testing.T) {
	e := Event{
		StartAt: time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC),
	}
	day := func(h int) time.Time { return time.Date(2026, 5, 14, h, 0, 0, 0, time.UTC) }

	assert.True(t, e.Overlaps(day(8), day(11)))
	assert.True(t, e.Overlaps(day(9), day(10)))
	assert.False(t, e.Overlaps(day(10), day(11)))
	assert.False(t, e.Overlaps(day(7), day(9)))
}

func TestEvent_RemindAt(t *testing.T) {
	e := Event{StartAt: time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)}
	assert.Nil(t, e.RemindAt())

	m := int32(15)
	e.RemindBeforeMinutes = &m
	require.NotNil(t, e.RemindAt())
	assert.Equal(t, time.Date(2026, 5, 14, 8, 45, 0, 0, time.UTC), *e.RemindAt())
}
