package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTP_Send(t *testing.T) {
	// Arrange
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "no-reply@gofocus.app"})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotRaw []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotRaw = addr, from, to, msg
		return nil
	}

	// Act
	err = s.Send(context.Background(), Message{
		To:       []string{"a@example.com"},
		Bcc:      []string{"b@example.com"},
		Subject:  "Today's focus",
		TextBody: "2 todos due",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", gotAddr)
	assert.Equal(t, "no-reply@gofocus.app", gotFrom)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	raw := string(gotRaw)
	assert.Contains(t, raw, "To: a@example.com\r\n")
	assert.NotContains(t, raw, "b@example.com")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n2 todos due"))
}

func TestSMTP_Errors(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 25})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrSMTPNoRecipients)
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrSMTPNoSender)
}

func TestCompose_Multipart(t *testing.T) {
	raw := string(compose(Message{
		From:     "a@example.com",
		To:       []string{"b@example.com"},
		Subject:  "Erinnerung: Besprechung",
		TextBody: "text",
		HTMLBody: "<p>html</p>",
	}, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))

	assert.Contains(t, raw, "Date: Mon, 02 Mar 2026 09:00:00 +0000")
	assert.Contains(t, raw, "multipart/alternative; boundary=gofocus-")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8\r\n\r\ntext")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>html</p>")
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver("log", SMTPConfig{})
	require.NoError(t, err)
	assert.NoError(t, m.Send(context.Background(), Message{To: []string{"a@example.com"}}))

	_, err = NewFromDriver("sendgrid", SMTPConfig{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
