package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
	"github.com/shandysiswandi/gofocus/internal/reminder/entity"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const reminderBatchSize int32 = 200

type eventReminderEmailData struct {
	baseEmailData
	FullName string
	Title    string
	Location string
	Start    string
	Day      string
}

// EventReminders emails the owner of every event whose reminder is due and
// stamps it reminded. Rows left over past the batch are picked up on the
// next tick.
func (s *Usecase) EventReminders(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "EventReminders")
	defer span.End()

	now := s.clock.Now()

	due, err := s.repoDB.ListDueReminders(ctx, now, reminderBatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list due reminders", "error", err)
		return err
	}
	if len(due) == 0 {
		return nil
	}

	var sent, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency())
	for _, r := range due {
		g.Go(func() error {
			if err := s.sendEventReminder(ctx, r, now); err != nil {
				failed.Inc()
				return nil
			}
			sent.Inc()
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "event reminders finished", "due", len(due), "sent", sent.Load(), "failed", failed.Load())
	return nil
}

// sendEventReminder is keyed by event and start so a rescheduled event is
// reminded again.
func (s *Usecase) sendEventReminder(ctx context.Context, r entity.DueReminder, now time.Time) error {
	key := "reminder:event:" + strconv.FormatInt(r.EventID, 10) + ":" + strconv.FormatInt(r.StartAt.Unix(), 10)

	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		start := r.StartAt.In(now.Location())
		body, err := s.render("event_reminder.html", eventReminderEmailData{
			baseEmailData: s.baseEmailData(),
			FullName:      r.Recipient.FullName,
			Title:         r.Title,
			Location:      r.Location,
			Start:         start.Format("15:04"),
			Day:           start.Format("Mon, 02 Jan 2006"),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to render event reminder email", "event_id", r.EventID, "error", err)
			return err
		}

		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{r.Recipient.Email},
			Subject:  "Reminder: " + r.Title + " at " + start.Format("15:04"),
			HTMLBody: body,
		}); err != nil {
			return err
		}

		marked, err := s.repoDB.MarkReminded(ctx, r.EventID, r.StartAt, now)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo mark event reminded", "event_id", r.EventID, "error", err)
			return nil
		}
		if !marked {
			slog.WarnContext(ctx, "event changed before it was marked reminded", "event_id", r.EventID)
		}

		return nil
	},
		idempotency.WithReleaseOnFailure(),
		idempotency.WithLockDuration(s.cfg.GetMinute("modules.reminder.lock_minutes")),
		idempotency.WithStateTTL(r.StartAt.Sub(now)+time.Hour),
	)
	if idempotency.IsDuplicate(err) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send event reminder", "event_id", r.EventID, "user_id", r.Recipient.UserID, "error", err)
		return err
	}

	return nil
}
