package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamvault/config"
)

type captured struct {
	from string
	to   []string
	body string
}

func newTestMailer(t *testing.T, send func(from string, to []string, body []byte) error) *SMTPMailer {
	t.Helper()
	m := NewSMTPMailer(&config.Config{
		MailServer:        "smtp.example.com",
		MailPort:          587,
		MailDefaultSender: "noreply@streamvault.com",
	})
	m.send = send
	return m
}

func TestSendRendersMultipartMessage(t *testing.T) {
	var got captured
	m := newTestMailer(t, func(from string, to []string, body []byte) error {
		got = captured{from, to, string(body)}
		return nil
	})

	msg := PasswordResetMessage("viewer@example.com", "binge_watcher", "http://localhost:5000/reset-password?token=abc")
	require.NoError(t, m.Send(context.Background(), msg))

	assert.Equal(t, "noreply@streamvault.com", got.from)
	assert.Equal(t, []string{"viewer@example.com"}, got.to)
	assert.Contains(t, got.body, "Subject: StreamVault - Password Reset Instructions\r\n")
	assert.Contains(t, got.body, "multipart/alternative")
	assert.Contains(t, got.body, "text/plain; charset=utf-8")
	assert.Contains(t, got.body, "text/html; charset=utf-8")
	assert.Contains(t, got.body, "token=abc")
	assert.Contains(t, got.body, "expire in 1 hour")
}

func TestSendRequiresServer(t *testing.T) {
	m := NewSMTPMailer(&config.Config{})
	err := m.Send(context.Background(), Message{To: []string{"a@b.c"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendTripsBreakerAfterRepeatedFailures(t *testing.T) {
	calls := 0
	refused := errors.New("connection refused")
	m := newTestMailer(t, func(string, []string, []byte) error {
		calls++
		return refused
	})
	msg := Message{To: []string{"viewer@example.com"}, Subject: "hi", Text: "hello"}

	for i := 0; i < 3; i++ {
		err := m.Send(context.Background(), msg)
		assert.ErrorIs(t, err, refused)
	}

	err := m.Send(context.Background(), msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

func TestPasswordResetMessageEscapesHTML(t *testing.T) {
	msg := PasswordResetMessage("x@example.com", "<b>eve</b>", "http://h/r?token=1&x=2")

	assert.True(t, strings.Contains(msg.HTML, "&lt;b&gt;eve&lt;/b&gt;"))
	assert.True(t, strings.Contains(msg.HTML, "token=1&amp;x=2"))
	assert.Contains(t, msg.Text, "Hello <b>eve</b>")
}
