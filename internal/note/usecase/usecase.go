package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/storage"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateNote(ctx context.Context, n entity.Note) error
	GetNote(ctx context.Context, id, userID int64) (*entity.Note, error)
	ListNotes(ctx context.Context, f entity.NoteFilter) ([]entity.Note, int64, error)
	UpdateNote(ctx context.Context, n entity.Note) error
	DeleteNote(ctx context.Context, id, userID int64) error

	CreateAttachment(ctx context.Context, a entity.Attachment) error
	GetAttachment(ctx context.Context, id, noteID int64) (*entity.Attachment, error)
	ListAttachments(ctx context.Context, noteID int64) ([]entity.Attachment, error)
	DeleteAttachment(ctx context.Context, id, noteID int64) error
}

type Usecase struct {
	repoDB    repoDB
	storage   storage.Storage
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Storage    storage.Storage
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		storage:   dep.Storage,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("note.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) loadNote(ctx context.Context, id, userID int64) (*entity.Note, error) {
	n, err := s.repoDB.GetNote(ctx, id, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "note not found", "note_id", id, "user_id", userID)
		return nil, goerror.NewBusiness("Note not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get note", "note_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}
	return n, nil
}

func (s *Usecase) loadAttachment(ctx context.Context, id, noteID int64) (*entity.Attachment, error) {
	a, err := s.repoDB.GetAttachment(ctx, id, noteID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "attachment not found", "attachment_id", id, "note_id", noteID)
		return nil, goerror.NewBusiness("Attachment not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get attachment", "attachment_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}
	return a, nil
}
