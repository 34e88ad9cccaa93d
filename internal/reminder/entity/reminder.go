package entity

import "time"

const DateLayout = "2006-01-02"

// Recipient is an active user who can receive reminder emails.
type Recipient struct {
	UserID   int64
	Email    string
	FullName string
}

type DigestTodo struct {
	ID       int64
	Title    string
	Priority string
}

type DigestEvent struct {
	ID       int64
	Title    string
	Location string
	StartAt  time.Time
	EndAt    time.Time
	AllDay   bool
}

// Digest is what one recipient has on their plate for Day.
type Digest struct {
	Recipient Recipient
	Day       time.Time
	Todos     []DigestTodo
	Events    []DigestEvent
}

func (d Digest) Empty() bool {
	return len(d.Todos) == 0 && len(d.Events) == 0
}

// DueReminder is a calendar event whose reminder window has opened.
type DueReminder struct {
	EventID             int64
	Recipient           Recipient
	Title               string
	Location            string
	StartAt             time.Time
	RemindBeforeMinutes int32
}

// Day truncates t to midnight in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
