package entity

import (
	"errors"
	"time"
)

// ErrAttachmentTooLarge is returned while streaming an upload past its limit.
var ErrAttachmentTooLarge = errors.New("note: attachment exceeds max size")

type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	Tags      []string
	Pinned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Attachment struct {
	ID          int64
	NoteID      int64
	ObjectKey   string
	FileName    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

type NoteFilter struct {
	UserID int64
	Search string
	Tag    string
	Pinned *bool
	Limit  int32
	Offset int32
}
