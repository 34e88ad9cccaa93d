package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/note/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req NoteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	n, err := h.uc.NoteCreate(r.Context(), usecase.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Pinned:  req.Pinned,
	})
	if err != nil {
		return nil, err
	}

	return NoteCreatedResponse{NoteResponse: toNoteResponse(*n)}, nil
}

func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	pinned, err := r.GetQueryBool("pinned")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.NoteList(r.Context(), usecase.NoteListInput{
		Search: r.GetQuery("search"),
		Tag:    r.GetQuery("tag"),
		Pinned: pinned,
		Size:   size,
		Page:   page,
	})
	if err != nil {
		return nil, err
	}

	return NotesResponse{
		Notes: lo.Map(resp.Notes, func(n entity.Note, _ int) NoteResponse { return toNoteResponse(n) }),
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}

func (h *HTTPEndpoint) Detail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.NoteDetail(r.Context(), id)
	if err != nil {
		return nil, err
	}

	out := toNoteResponse(resp.Note)
	out.Attachments = toAttachmentResponses(resp.Attachments)
	return out, nil
}

func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req NoteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	n, err := h.uc.NoteUpdate(r.Context(), usecase.NoteInput{
		ID:      id,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return nil, err
	}

	return toNoteResponse(*n), nil
}

func (h *HTTPEndpoint) Pin(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req NotePinRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	if req.Pinned == nil {
		return nil, goerror.NewInvalidInput(nil, "pinned", "pinned is required")
	}

	n, err := h.uc.NotePin(r.Context(), id, *req.Pinned)
	if err != nil {
		return nil, err
	}

	return toNoteResponse(*n), nil
}

func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.NoteDelete(r.Context(), id)
}

// Upload streams the multipart "file" field straight to object storage.
func (h *HTTPEndpoint) Upload(r *router.Request) (any, error) {
	ctx := r.Context()

	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	file, err := r.StreamSingleFile("file")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, goerror.NewInvalidFormat()
	}

	contentType, _, _ := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if ct, _, err := mime.ParseMediaType(file.Header.Get("Content-Type")); err == nil && ct != "application/octet-stream" {
		contentType = ct
	}

	a, err := h.uc.AttachmentUpload(ctx, usecase.AttachmentUploadInput{
		NoteID:      id,
		FileName:    file.FileName(),
		ContentType: contentType,
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
	})
	if err != nil {
		return nil, err
	}

	return AttachmentCreatedResponse{AttachmentResponse: toAttachmentResponse(*a)}, nil
}

func (h *HTTPEndpoint) Download(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}
	attachmentID, err := r.GetParamInt64("attachment_id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.AttachmentURL(r.Context(), id, attachmentID)
	if err != nil {
		return nil, err
	}

	return AttachmentURLResponse{
		AttachmentResponse: toAttachmentResponse(resp.Attachment),
		URL:                resp.URL,
		ExpiresAt:          resp.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (h *HTTPEndpoint) DeleteAttachment(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}
	attachmentID, err := r.GetParamInt64("attachment_id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.AttachmentDelete(r.Context(), id, attachmentID)
}
