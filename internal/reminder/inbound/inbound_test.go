package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pkg/scheduler"
	"github.com/shandysiswandi/gofocus/internal/reminder/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUC struct {
	mock.Mock
}

func (m *mockUC) ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) DailyDigest(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUC) EventReminders(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubUUID struct{}

func (stubUUID) Generate() string { return "generated-cid" }

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m fakeMessage) Body() []byte                  { return m.body }
func (m fakeMessage) Key() []byte                   { return nil }
func (m fakeMessage) Headers() []messaging.Header   { return m.headers }
func (m fakeMessage) Topic() string                 { return "user_registered" }
func (m fakeMessage) Timestamp() time.Time          { return time.Time{} }
func (m fakeMessage) Ack(ctx context.Context) error { return nil }

func newConfig(t *testing.T, yaml string) config.Config {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestMQHandler_UserRegistered(t *testing.T) {
	t.Run("passes payload and correlation id", func(t *testing.T) {
		// Arrange
		uc := &mockUC{}
		h := &MQHandler{uc: uc, uuid: stubUUID{}, ins: instrument.NewNoop()}
		msg := fakeMessage{
			body:    []byte(`{"user_id":7,"email":"ada@example.com","full_name":"Ada","registered_at":"2026-05-14T09:00:00Z"}`),
			headers: []messaging.Header{{Key: "cID", Value: []byte("cid-1")}},
		}
		uc.On("ConsumeUserRegistered", mock.MatchedBy(func(ctx context.Context) bool {
			return instrument.GetCorrelationID(ctx) == "cid-1"
		}), usecase.ConsumeUserRegisteredInput{
			UserID:       7,
			Email:        "ada@example.com",
			FullName:     "Ada",
			RegisteredAt: time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC),
		}).Return(nil)

		// Act
		err := h.UserRegistered(context.Background(), msg)

		// Assert
		require.NoError(t, err)
		uc.AssertExpectations(t)
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		// Arrange
		uc := &mockUC{}
		h := &MQHandler{uc: uc, uuid: stubUUID{}, ins: instrument.NewNoop()}

		// Act
		err := h.UserRegistered(context.Background(), fakeMessage{body: []byte(`{`)})

		// Assert
		require.NoError(t, err)
		uc.AssertNotCalled(t, "ConsumeUserRegistered", mock.Anything, mock.Anything)
	})

	t.Run("usecase failure is returned for redelivery", func(t *testing.T) {
		// Arrange
		uc := &mockUC{}
		h := &MQHandler{uc: uc, uuid: stubUUID{}, ins: instrument.NewNoop()}
		uc.On("ConsumeUserRegistered", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		// Act
		err := h.UserRegistered(context.Background(), fakeMessage{body: []byte(`{"user_id":7}`)})

		// Assert
		require.Error(t, err)
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	t.Run("disabled consumer is not started", func(t *testing.T) {
		// Arrange
		pool := goroutine.NewManager(2)
		cfg := newConfig(t, "modules:\n  reminder:\n    consumer_names: \"\"\n")

		// Act
		RegisterMQConsumer(context.Background(), cfg, pool, messaging.NewMemory(4), stubUUID{}, &mockUC{}, instrument.NewNoop())

		// Assert
		assert.Equal(t, 0, pool.Running())
	})

	t.Run("enabled consumer runs until canceled", func(t *testing.T) {
		// Arrange
		pool := goroutine.NewManager(2)
		cfg := newConfig(t, "modules:\n  reminder:\n    consumer_names: user_registered_reminder\n    consumer_concurrency: 1\n")
		ctx, cancel := context.WithCancel(context.Background())

		// Act
		RegisterMQConsumer(ctx, cfg, pool, messaging.NewMemory(4), stubUUID{}, &mockUC{}, instrument.NewNoop())

		// Assert
		assert.Eventually(t, func() bool { return pool.Running() == 1 }, time.Second, 10*time.Millisecond)
		cancel()
		_ = pool.Wait()
		assert.Equal(t, 0, pool.Running())
	})
}

func TestRegisterJob(t *testing.T) {
	t.Run("registers configured jobs", func(t *testing.T) {
		// Arrange
		pool := goroutine.NewManager(2)
		s := scheduler.New(time.UTC, pool)
		uc := &mockUC{}
		ran := make(chan struct{})
		uc.On("EventReminders", mock.Anything).Run(func(mock.Arguments) { close(ran) }).Return(nil)
		cfg := newConfig(t, "modules:\n  reminder:\n    digest_cron: \"0 7 * * *\"\n    event_cron: \"@every 1m\"\n")

		// Act
		err := RegisterJob(s, cfg, uc)

		// Assert
		require.NoError(t, err)
		assert.Error(t, s.Register(JobDailyDigest, "@daily", uc.DailyDigest))
		require.NoError(t, s.RunNow(JobEventReminders))
		<-ran
		require.NoError(t, s.Stop(context.Background()))
		require.NoError(t, pool.Wait())
	})

	t.Run("empty spec leaves job off", func(t *testing.T) {
		// Arrange
		pool := goroutine.NewManager(2)
		s := scheduler.New(time.UTC, pool)
		cfg := newConfig(t, "modules:\n  reminder:\n    event_cron: \"@every 1m\"\n")

		// Act
		err := RegisterJob(s, cfg, &mockUC{})

		// Assert
		require.NoError(t, err)
		assert.ErrorIs(t, s.RunNow(JobDailyDigest), scheduler.ErrUnknownJob)
		require.NoError(t, s.Stop(context.Background()))
	})
}
