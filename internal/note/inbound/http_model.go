package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/note/entity"
)

type NoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Pinned  bool     `json:"pinned"`
}

type NotePinRequest struct {
	Pinned *bool `json:"pinned"`
}

type NoteResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	Tags        []string             `json:"tags"`
	Pinned      bool                 `json:"pinned"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

type NoteCreatedResponse struct {
	NoteResponse
}

func (NoteCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

func (NoteCreatedResponse) Message() string {
	return "Note created"
}

type NotesResponse struct {
	Notes []NoteResponse `json:"notes"`
	total int64
	size  int32
	page  int32
}

func (r NotesResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type AttachmentResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"created_at"`
}

type AttachmentCreatedResponse struct {
	AttachmentResponse
}

func (AttachmentCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

func (AttachmentCreatedResponse) Message() string {
	return "Attachment uploaded"
}

type AttachmentURLResponse struct {
	AttachmentResponse
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

func toNoteResponse(n entity.Note) NoteResponse {
	resp := NoteResponse{
		ID:        strconv.FormatInt(n.ID, 10),
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		Pinned:    n.Pinned,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

func toAttachmentResponse(a entity.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          strconv.FormatInt(a.ID, 10),
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

func toAttachmentResponses(items []entity.Attachment) []AttachmentResponse {
	return lo.Map(items, func(a entity.Attachment, _ int) AttachmentResponse { return toAttachmentResponse(a) })
}
