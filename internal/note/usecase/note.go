package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/shared/paging"
	"github.com/shandysiswandi/gofocus/internal/shared/tag"
)

type NoteInput struct {
	ID      int64
	Title   string `validate:"required,max=200"`
	Content string `validate:"max=20000"`
	Tags    []string
	Pinned  bool
}

func (s *Usecase) normalize(in *NoteInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = tag.Normalize(in.Tags)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if !tag.Valid(in.Tags) {
		return goerror.NewInvalidInput(nil, "tags", "each tag must be at most 32 characters")
	}
	return nil
}

func (s *Usecase) NoteCreate(ctx context.Context, in NoteInput) (*entity.Note, error) {
	ctx, span := s.startSpan(ctx, "NoteCreate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	n := entity.Note{
		ID:        s.uid.Generate(),
		UserID:    clm.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		Pinned:    in.Pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repoDB.CreateNote(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to repo create note", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &n, nil
}

type NoteListInput struct {
	Search string `validate:"max=200"`
	Tag    string `validate:"max=32"`
	Pinned *bool
	Size   int32
	Page   int32
}

type NoteListOutput struct {
	Page  int32
	Size  int32
	Total int64
	Notes []entity.Note
}

func (s *Usecase) NoteList(ctx context.Context, in NoteListInput) (*NoteListOutput, error) {
	ctx, span := s.startSpan(ctx, "NoteList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Search = strings.TrimSpace(in.Search)
	in.Tag = strings.ToLower(strings.TrimSpace(in.Tag))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	in.Size = paging.Size(in.Size)
	page := max(in.Page, 1)

	notes, total, err := s.repoDB.ListNotes(ctx, entity.NoteFilter{
		UserID: clm.UserID,
		Search: in.Search,
		Tag:    in.Tag,
		Pinned: in.Pinned,
		Limit:  in.Size,
		Offset: (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list notes", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &NoteListOutput{Page: page, Size: in.Size, Total: total, Notes: notes}, nil
}

type NoteDetailOutput struct {
	Note        entity.Note
	Attachments []entity.Attachment
}

func (s *Usecase) NoteDetail(ctx context.Context, id int64) (*NoteDetailOutput, error) {
	ctx, span := s.startSpan(ctx, "NoteDetail")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.loadNote(ctx, id, clm.UserID)
	if err != nil {
		return nil, err
	}

	atts, err := s.repoDB.ListAttachments(ctx, n.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list attachments", "note_id", n.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &NoteDetailOutput{Note: *n, Attachments: atts}, nil
}

// NoteUpdate replaces title, content and tags. Pin state is kept; use NotePin.
func (s *Usecase) NoteUpdate(ctx context.Context, in NoteInput) (*entity.Note, error) {
	ctx, span := s.startSpan(ctx, "NoteUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	n, err := s.loadNote(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	n.Title = in.Title
	n.Content = in.Content
	n.Tags = in.Tags
	n.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, *n); err != nil {
		return nil, err
	}

	return n, nil
}

func (s *Usecase) NotePin(ctx context.Context, id int64, pinned bool) (*entity.Note, error) {
	ctx, span := s.startSpan(ctx, "NotePin")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.loadNote(ctx, id, clm.UserID)
	if err != nil {
		return nil, err
	}
	if n.Pinned == pinned {
		return n, nil
	}

	n.Pinned = pinned
	n.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, *n); err != nil {
		return nil, err
	}

	return n, nil
}

func (s *Usecase) NoteDelete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "NoteDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteNote(ctx, id, clm.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "note to delete not found", "note_id", id, "user_id", clm.UserID)
			return goerror.NewBusiness("Note not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo delete note", "note_id", id, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) save(ctx context.Context, n entity.Note) error {
	err := s.repoDB.UpdateNote(ctx, n)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Note not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update note", "note_id", n.ID, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}
