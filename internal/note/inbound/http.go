package inbound

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/note/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

type uc interface {
	NoteCreate(ctx context.Context, in usecase.NoteInput) (*entity.Note, error)
	NoteList(ctx context.Context, in usecase.NoteListInput) (*usecase.NoteListOutput, error)
	NoteDetail(ctx context.Context, id int64) (*usecase.NoteDetailOutput, error)
	NoteUpdate(ctx context.Context, in usecase.NoteInput) (*entity.Note, error)
	NotePin(ctx context.Context, id int64, pinned bool) (*entity.Note, error)
	NoteDelete(ctx context.Context, id int64) error

	AttachmentUpload(ctx context.Context, in usecase.AttachmentUploadInput) (*entity.Attachment, error)
	AttachmentURL(ctx context.Context, noteID, attachmentID int64) (*usecase.AttachmentURLOutput, error)
	AttachmentDelete(ctx context.Context, noteID, attachmentID int64) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/notes", end.Create)
	r.GET("/api/v1/notes", end.List)
	r.GET("/api/v1/notes/:id", end.Detail)
	r.PUT("/api/v1/notes/:id", end.Update)
	r.DELETE("/api/v1/notes/:id", end.Delete)
	r.PATCH("/api/v1/notes/:id/pin", end.Pin)

	r.POST("/api/v1/notes/:id/attachments", end.Upload)
	r.GET("/api/v1/notes/:id/attachments/:attachment_id", end.Download)
	r.DELETE("/api/v1/notes/:id/attachments/:attachment_id", end.DeleteAttachment)
}
