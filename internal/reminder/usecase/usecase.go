package usecase

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"github.com/shandysiswandi/gofocus/internal/reminder/entity"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultConcurrency = 8

type repoDB interface {
	ListDigestRecipients(ctx context.Context, day, from, to time.Time, afterID int64, limit int32) ([]entity.Recipient, error)
	ListDueTodos(ctx context.Context, userID int64, day time.Time) ([]entity.DigestTodo, error)
	ListDayEvents(ctx context.Context, userID int64, from, to time.Time) ([]entity.DigestEvent, error)

	ListDueReminders(ctx context.Context, now time.Time, limit int32) ([]entity.DueReminder, error)
	MarkReminded(ctx context.Context, eventID int64, startAt, at time.Time) (bool, error)
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoDB    repoDB
	repoMail  repoMail
	idemp     idempotency.Idempotency
	validator validator.Validator
	cfg       config.Config
	clock     clock.Clocker
	ins       instrument.Instrumentation
	tpl       *template.Template
}

type Dependency struct {
	RepoDB      repoDB
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMail:  dep.RepoMail,
		idemp:     dep.Idempotency,
		validator: dep.Validator,
		cfg:       dep.Config,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		tpl:       template.Must(template.New("reminder").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("reminder.usecase").Start(ctx, name)
}

type baseEmailData struct {
	AppName      string
	SupportEmail string
	WebURL       string
	Year         string
}

func (s *Usecase) baseEmailData() baseEmailData {
	return baseEmailData{
		AppName:      s.cfg.GetString("app.name"),
		SupportEmail: s.cfg.GetString("modules.reminder.support_email"),
		WebURL:       s.cfg.GetString("app.web"),
		Year:         s.clock.Now().Format("2006"),
	}
}

func (s *Usecase) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) concurrency() int {
	if n := s.cfg.GetInt("modules.reminder.concurrency"); n > 0 {
		return n
	}
	return defaultConcurrency
}
