package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
	"github.com/shandysiswandi/gofocus/internal/reminder/entity"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const digestBatchSize int32 = 200

type digestEmailData struct {
	baseEmailData
	FullName string
	Day      string
	Todos    []entity.DigestTodo
	Events   []digestEventView
}

type digestEventView struct {
	Title    string
	Location string
	Start    string
	End      string
	AllDay   bool
}

// DailyDigest emails every user with open todos due today or events today.
// Each (user, day) pair is sent at most once across instances.
func (s *Usecase) DailyDigest(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "DailyDigest")
	defer span.End()

	day := entity.Day(s.clock.Now())
	from, to := day, day.AddDate(0, 0, 1)

	var sent, skipped, failed atomic.Int64
	var afterID int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		recipients, err := s.repoDB.ListDigestRecipients(ctx, day, from, to, afterID, digestBatchSize)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list digest recipients", "after_id", afterID, "error", err)
			return err
		}
		if len(recipients) == 0 {
			break
		}

		g := new(errgroup.Group)
		g.SetLimit(s.concurrency())
		for _, r := range recipients {
			g.Go(func() error {
				ok, err := s.sendDigest(ctx, r, day, from, to)
				switch {
				case err != nil:
					failed.Inc()
				case ok:
					sent.Inc()
				default:
					skipped.Inc()
				}
				return nil
			})
		}
		_ = g.Wait()

		afterID = recipients[len(recipients)-1].UserID
		if int32(len(recipients)) < digestBatchSize {
			break
		}
	}

	slog.InfoContext(ctx, "daily digest finished",
		"day", day.Format(entity.DateLayout),
		"sent", sent.Load(),
		"skipped", skipped.Load(),
		"failed", failed.Load(),
	)

	return nil
}

// sendDigest reports whether an email went out. A digest already handled by
// another run or instance is skipped.
func (s *Usecase) sendDigest(ctx context.Context, r entity.Recipient, day, from, to time.Time) (bool, error) {
	key := "reminder:digest:" + strconv.FormatInt(r.UserID, 10) + ":" + day.Format(entity.DateLayout)

	var delivered bool
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		d, err := s.loadDigest(ctx, r, day, from, to)
		if err != nil {
			return err
		}
		if d.Empty() {
			return nil
		}

		body, err := s.render("digest.html", s.digestEmailData(d, from.Location()))
		if err != nil {
			slog.ErrorContext(ctx, "failed to render digest email", "user_id", r.UserID, "error", err)
			return err
		}

		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{r.Email},
			Subject:  "Your plan for " + day.Format("Mon, 02 Jan 2006"),
			HTMLBody: body,
		}); err != nil {
			return err
		}

		delivered = true
		return nil
	},
		idempotency.WithReleaseOnFailure(),
		idempotency.WithLockDuration(s.cfg.GetMinute("modules.reminder.lock_minutes")),
		idempotency.WithStateTTL(48*time.Hour),
	)
	if idempotency.IsDuplicate(err) {
		return false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send daily digest", "user_id", r.UserID, "day", day.Format(entity.DateLayout), "error", err)
		return false, err
	}

	return delivered, nil
}

func (s *Usecase) loadDigest(ctx context.Context, r entity.Recipient, day, from, to time.Time) (entity.Digest, error) {
	todos, err := s.repoDB.ListDueTodos(ctx, r.UserID, day)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list due todos", "user_id", r.UserID, "error", err)
		return entity.Digest{}, err
	}

	events, err := s.repoDB.ListDayEvents(ctx, r.UserID, from, to)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list day events", "user_id", r.UserID, "error", err)
		return entity.Digest{}, err
	}

	return entity.Digest{Recipient: r, Day: day, Todos: todos, Events: events}, nil
}

func (s *Usecase) digestEmailData(d entity.Digest, loc *time.Location) digestEmailData {
	return digestEmailData{
		baseEmailData: s.baseEmailData(),
		FullName:      d.Recipient.FullName,
		Day:           d.Day.Format("Monday, 02 January 2006"),
		Todos:         d.Todos,
		Events: lo.Map(d.Events, func(e entity.DigestEvent, _ int) digestEventView {
			return digestEventView{
				Title:    e.Title,
				Location: e.Location,
				Start:    e.StartAt.In(loc).Format("15:04"),
				End:      e.EndAt.In(loc).Format("15:04"),
				AllDay:   e.AllDay,
			}
		}),
	}
}
