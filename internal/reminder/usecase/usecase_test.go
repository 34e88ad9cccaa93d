package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"github.com/shandysiswandi/gofocus/internal/reminder/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListDigestRecipients(ctx context.Context, day, from, to time.Time, afterID int64, limit int32) ([]entity.Recipient, error) {
	args := m.Called(ctx, day, from, to, afterID, limit)
	items, _ := args.Get(0).([]entity.Recipient)
	return items, args.Error(1)
}

func (m *mockRepo) ListDueTodos(ctx context.Context, userID int64, day time.Time) ([]entity.DigestTodo, error) {
	args := m.Called(ctx, userID, day)
	items, _ := args.Get(0).([]entity.DigestTodo)
	return items, args.Error(1)
}

func (m *mockRepo) ListDayEvents(ctx context.Context, userID int64, from, to time.Time) ([]entity.DigestEvent, error) {
	args := m.Called(ctx, userID, from, to)
	items, _ := args.Get(0).([]entity.DigestEvent)
	return items, args.Error(1)
}

func (m *mockRepo) ListDueReminders(ctx context.Context, now time.Time, limit int32) ([]entity.DueReminder, error) {
	args := m.Called(ctx, now, limit)
	items, _ := args.Get(0).([]entity.DueReminder)
	return items, args.Error(1)
}

func (m *mockRepo) MarkReminded(ctx context.Context, eventID int64, startAt, at time.Time) (bool, error) {
	args := m.Called(ctx, eventID, startAt, at)
	return args.Bool(0), args.Error(1)
}

// fakeMail records delivered messages and fails for addresses in failFor.
type fakeMail struct {
	mu      sync.Mutex
	sent    []mail.Message
	failFor map[string]bool
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFor[msg.To[0]] {
		return errors.New("smtp: 451 try again later")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) to(addr string) []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []mail.Message
	for _, m := range f.sent {
		if m.To[0] == addr {
			out = append(out, m)
		}
	}
	return out
}

const testConfig = `
app:
  name: GoFocus
  web: https://focus.example.com
modules:
  reminder:
    support_email: help@example.com
    concurrency: 4
    lock_minutes: 5
    dedup_ttl_hours: 24
`

type fixture struct {
	uc    *Usecase
	repo  *mockRepo
	mail  *fakeMail
	clock *clock.Fixed
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &mockRepo{}
	fm := &fakeMail{failFor: map[string]bool{}}
	clk := clock.NewFixed(time.Date(2026, 5, 14, 6, 0, 0, 0, time.UTC))

	uc := New(Dependency{
		RepoDB:      repo,
		RepoMail:    fm,
		Idempotency: idempotency.New(rdb),
		Validator:   v,
		Config:      cfg,
		Clock:       clk,
		Instrument:  instrument.NewNoop(),
	})

	return fixture{uc: uc, repo: repo, mail: fm, clock: clk}
}

func TestConsumeUserRegistered(t *testing.T) {
	in := ConsumeUserRegisteredInput{UserID: 7, Email: "ada@example.com", FullName: "Ada Lovelace"}

	t.Run("sends welcome email once", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err1 := f.uc.ConsumeUserRegistered(context.Background(), in)
		err2 := f.uc.ConsumeUserRegistered(context.Background(), in)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		sent := f.mail.to("ada@example.com")
		require.Len(t, sent, 1)
		assert.Equal(t, "Welcome to GoFocus", sent[0].Subject)
		assert.Contains(t, sent[0].HTMLBody, "Hi Ada Lovelace,")
		assert.Contains(t, sent[0].HTMLBody, "https://focus.example.com")
		assert.Contains(t, sent[0].HTMLBody, "help@example.com")
		assert.Contains(t, sent[0].HTMLBody, "2026")
	})

	t.Run("drops invalid payload", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 7, Email: "not-an-email"})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, f.mail.sent)
	})

	t.Run("failed send is returned and retried", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.mail.failFor["ada@example.com"] = true

		// Act
		err := f.uc.ConsumeUserRegistered(context.Background(), in)
		f.mail.failFor["ada@example.com"] = false
		errRetry := f.uc.ConsumeUserRegistered(context.Background(), in)

		// Assert
		require.Error(t, err)
		require.NoError(t, errRetry)
		assert.Len(t, f.mail.to("ada@example.com"), 1)
	})

	t.Run("escapes user supplied name", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
			UserID: 8, Email: "eve@example.com", FullName: "<script>x</script>",
		})

		// Assert
		require.NoError(t, err)
		sent := f.mail.to("eve@example.com")
		require.Len(t, sent, 1)
		assert.NotContains(t, sent[0].HTMLBody, "<script>")
		assert.Contains(t, sent[0].HTMLBody, "&lt;script&gt;")
	})
}

func TestDailyDigest(t *testing.T) {
	day := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
	from, to := day, day.AddDate(0, 0, 1)

	ada := entity.Recipient{UserID: 7, Email: "ada@example.com", FullName: "Ada"}
	bob := entity.Recipient{UserID: 9, Email: "bob@example.com", FullName: "Bob"}

	arrange := func(f fixture) {
		f.repo.On("ListDigestRecipients", mock.Anything, day, from, to, int64(0), digestBatchSize).
			Return([]entity.Recipient{ada, bob}, nil)

		f.repo.On("ListDueTodos", mock.Anything, int64(7), day).
			Return([]entity.DigestTodo{{ID: 1, Title: "Ship release", Priority: "high"}}, nil)
		f.repo.On("ListDayEvents", mock.Anything, int64(7), from, to).
			Return([]entity.DigestEvent{{
				ID: 2, Title: "Standup", Location: "Room 4",
				StartAt: day.Add(9 * time.Hour), EndAt: day.Add(9*time.Hour + 15*time.Minute),
			}}, nil)

		f.repo.On("ListDueTodos", mock.Anything, int64(9), day).Return([]entity.DigestTodo{}, nil)
		f.repo.On("ListDayEvents", mock.Anything, int64(9), from, to).
			Return([]entity.DigestEvent{{ID: 3, Title: "Offsite", StartAt: day, EndAt: to, AllDay: true}}, nil)
	}

	t.Run("emails each recipient their day", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		arrange(f)

		// Act
		err := f.uc.DailyDigest(context.Background())

		// Assert
		require.NoError(t, err)

		adaMail := f.mail.to("ada@example.com")
		require.Len(t, adaMail, 1)
		assert.Equal(t, "Your plan for Thu, 14 May 2026", adaMail[0].Subject)
		assert.Contains(t, adaMail[0].HTMLBody, "Ship release")
		assert.Contains(t, adaMail[0].HTMLBody, "[high]")
		assert.Contains(t, adaMail[0].HTMLBody, "09:00 - 09:15")
		assert.Contains(t, adaMail[0].HTMLBody, "Room 4")

		bobMail := f.mail.to("bob@example.com")
		require.Len(t, bobMail, 1)
		assert.Contains(t, bobMail[0].HTMLBody, "All day")
		assert.NotContains(t, bobMail[0].HTMLBody, "Todos due today")
	})

	t.Run("second run on the same day sends nothing", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		arrange(f)
		require.NoError(t, f.uc.DailyDigest(context.Background()))

		// Act
		err := f.uc.DailyDigest(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Len(t, f.mail.sent, 2)
	})

	t.Run("a failed recipient does not block others and is retried", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		arrange(f)
		f.mail.failFor["ada@example.com"] = true

		// Act
		err := f.uc.DailyDigest(context.Background())
		f.mail.failFor["ada@example.com"] = false
		errRetry := f.uc.DailyDigest(context.Background())

		// Assert
		require.NoError(t, err)
		require.NoError(t, errRetry)
		assert.Len(t, f.mail.to("ada@example.com"), 1)
		assert.Len(t, f.mail.to("bob@example.com"), 1)
	})

	t.Run("skips digest emptied since listing", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("ListDigestRecipients", mock.Anything, day, from, to, int64(0), digestBatchSize).
			Return([]entity.Recipient{ada}, nil)
		f.repo.On("ListDueTodos", mock.Anything, int64(7), day).Return([]entity.DigestTodo{}, nil)
		f.repo.On("ListDayEvents", mock.Anything, int64(7), from, to).Return([]entity.DigestEvent{}, nil)

		// Act
		err := f.uc.DailyDigest(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Empty(t, f.mail.sent)
	})

	t.Run("repository failure stops the run", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("ListDigestRecipients", mock.Anything, day, from, to, int64(0), digestBatchSize).
			Return(nil, errors.New("db down"))

		// Act
		err := f.uc.DailyDigest(context.Background())

		// Assert
		require.Error(t, err)
		assert.Empty(t, f.mail.sent)
	})
}

func TestEventReminders(t *testing.T) {
	now := time.Date(2026, 5, 14, 6, 0, 0, 0, time.UTC)
	standup := entity.DueReminder{
		EventID:             2,
		Recipient:           entity.Recipient{UserID: 7, Email: "ada@example.com", FullName: "Ada"},
		Title:               "Standup",
		Location:            "Room 4",
		StartAt:             now.Add(10 * time.Minute),
		RemindBeforeMinutes: 15,
	}

	t.Run("emails and marks due events", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("ListDueReminders", mock.Anything, now, reminderBatchSize).Return([]entity.DueReminder{standup}, nil)
		f.repo.On("MarkReminded", mock.Anything, int64(2), standup.StartAt, now).Return(true, nil).Once()

		// Act
		err := f.uc.EventReminders(context.Background())

		// Assert
		require.NoError(t, err)
		sent := f.mail.to("ada@example.com")
		require.Len(t, sent, 1)
		assert.Equal(t, "Reminder: Standup at 06:10", sent[0].Subject)
		assert.Contains(t, sent[0].HTMLBody, "Room 4")
		f.repo.AssertExpectations(t)
	})

	t.Run("does not resend when the mark was lost", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("ListDueReminders", mock.Anything, now, reminderBatchSize).Return([]entity.DueReminder{standup}, nil)
		f.repo.On("MarkReminded", mock.Anything, int64(2), standup.StartAt, now).Return(false, errors.New("db down")).Once()

		// Act
		require.NoError(t, f.uc.EventReminders(context.Background()))
		err := f.uc.EventReminders(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Len(t, f.mail.sent, 1)
		f.repo.AssertNumberOfCalls(t, "MarkReminded", 1)
	})

	t.Run("reminds again after reschedule", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		moved := standup
		moved.StartAt = now.Add(5 * time.Minute)
		f.repo.On("ListDueReminders", mock.Anything, now, reminderBatchSize).Return([]entity.DueReminder{standup}, nil).Once()
		f.repo.On("ListDueReminders", mock.Anything, now, reminderBatchSize).Return([]entity.DueReminder{moved}, nil).Once()
		f.repo.On("MarkReminded", mock.Anything, int64(2), mock.Anything, now).Return(true, nil)

		// Act
		require.NoError(t, f.uc.EventReminders(context.Background()))
		err := f.uc.EventReminders(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Len(t, f.mail.sent, 2)
	})

	t.Run("failed send leaves event unmarked", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.mail.failFor["ada@example.com"] = true
		f.repo.On("ListDueReminders", mock.Anything, now, reminderBatchSize).Return([]entity.DueReminder{standup}, nil)

		// Act
		err := f.uc.EventReminders(context.Background())

		// Assert
		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "MarkReminded", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nothing due", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("ListDueReminders", mock.Anything, now, reminderBatchSize).Return([]entity.DueReminder{}, nil)

		// Act
		err := f.uc.EventReminders(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Empty(t, f.mail.sent)
	})
}
