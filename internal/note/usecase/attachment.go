package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/storage"
)

type AttachmentUploadInput struct {
	NoteID      int64  `validate:"required,gt=0"`
	FileName    string `validate:"required,max=255"`
	ContentType string `validate:"required,max=127"`
	File        io.Reader
}

func (s *Usecase) AttachmentUpload(ctx context.Context, in AttachmentUploadInput) (*entity.Attachment, error) {
	ctx, span := s.startSpan(ctx, "AttachmentUpload")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.FileName = path.Base(strings.ReplaceAll(strings.TrimSpace(in.FileName), `\`, "/"))
	in.ContentType = strings.ToLower(strings.TrimSpace(in.ContentType))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	n, err := s.loadNote(ctx, in.NoteID, clm.UserID)
	if err != nil {
		return nil, err
	}

	id := s.uid.Generate()
	key := strconv.FormatInt(clm.UserID, 10) + "/" + strconv.FormatInt(n.ID, 10) + "/" + s.uuid.Generate() + path.Ext(in.FileName)
	body := entity.NewLimitReader(in.File, s.cfg.GetInt64("modules.note.max_attachment_bytes"))

	info, err := s.storage.Put(ctx, key, body, storage.PutOptions{
		Size:        -1,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"note_id":       strconv.FormatInt(n.ID, 10),
			"attachment_id": strconv.FormatInt(id, 10),
		},
	})
	if err != nil {
		if errors.Is(err, entity.ErrAttachmentTooLarge) {
			return nil, goerror.NewInvalidInput(nil, "file", "file exceeds the maximum size")
		}
		slog.ErrorContext(ctx, "failed to upload note attachment", "note_id", n.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	a := entity.Attachment{
		ID:          id,
		NoteID:      n.ID,
		ObjectKey:   key,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Size:        info.Size,
		CreatedAt:   s.clock.Now(),
	}
	if a.Size <= 0 {
		a.Size = body.N()
	}

	if err := s.repoDB.CreateAttachment(ctx, a); err != nil {
		slog.ErrorContext(ctx, "failed to repo create attachment", "note_id", n.ID, "error", err)
		if errDel := s.storage.Delete(ctx, key); errDel != nil {
			slog.ErrorContext(ctx, "failed to remove orphan attachment object", "key", key, "error", errDel)
		}
		return nil, goerror.NewServer(err)
	}

	return &a, nil
}

type AttachmentURLOutput struct {
	Attachment entity.Attachment
	URL        string
	ExpiresAt  time.Time
}

// AttachmentURL returns a presigned download link for an attachment.
func (s *Usecase) AttachmentURL(ctx context.Context, noteID, attachmentID int64) (*AttachmentURLOutput, error) {
	ctx, span := s.startSpan(ctx, "AttachmentURL")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.loadNote(ctx, noteID, clm.UserID)
	if err != nil {
		return nil, err
	}
	a, err := s.loadAttachment(ctx, attachmentID, n.ID)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.GetSecond("modules.note.presign_ttl_seconds")
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	url, err := s.storage.PresignGet(ctx, a.ObjectKey, ttl)
	if errors.Is(err, storage.ErrObjectNotFound) {
		slog.WarnContext(ctx, "attachment object missing", "key", a.ObjectKey)
		return nil, goerror.NewBusiness("Attachment not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign attachment", "key", a.ObjectKey, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AttachmentURLOutput{Attachment: *a, URL: url, ExpiresAt: s.clock.Now().Add(ttl)}, nil
}

func (s *Usecase) AttachmentDelete(ctx context.Context, noteID, attachmentID int64) error {
	ctx, span := s.startSpan(ctx, "AttachmentDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	n, err := s.loadNote(ctx, noteID, clm.UserID)
	if err != nil {
		return err
	}
	a, err := s.loadAttachment(ctx, attachmentID, n.ID)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteAttachment(ctx, a.ID, n.ID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete attachment", "attachment_id", a.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.storage.Delete(ctx, a.ObjectKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		slog.ErrorContext(ctx, "failed to delete attachment object", "key", a.ObjectKey, "error", err)
	}

	return nil
}
