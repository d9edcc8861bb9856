package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"streamvault/config"
	"streamvault/metrics"
)

var ErrNotConfigured = errors.New("mail is not configured")

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sendFunc delivers a fully rendered message.
type sendFunc func(from string, to []string, body []byte) error

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	useTLS   bool
	useSSL   bool

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	send    sendFunc
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	m := &SMTPMailer{
		host:     cfg.MailServer,
		port:     cfg.MailPort,
		username: cfg.MailUsername,
		password: cfg.MailPassword,
		from:     cfg.MailDefaultSender,
		useTLS:   cfg.MailUseTLS,
		useSSL:   cfg.MailUseSSL,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
	m.send = m.dial
	m.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Mail circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.host == "" {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("mail has no recipients")
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := render(m.from, msg)
	if err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	_, err = m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(m.from, msg.To, body)
	})
	if err != nil {
		metrics.MailSent.WithLabelValues("failed").Inc()
		slog.Error("Failed to send mail", "to", msg.To, "subject", msg.Subject, "error", err)
		return fmt.Errorf("send mail: %w", err)
	}

	metrics.MailSent.WithLabelValues("sent").Inc()
	slog.Info("Mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *SMTPMailer) dial(from string, to []string, body []byte) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	tlsConfig := &tls.Config{ServerName: m.host}

	var conn net.Conn
	var err error
	if m.useSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if m.useTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("smtp server does not support STARTTLS")
		}
		if err := c.StartTLS(tlsConfig); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// render builds a multipart/alternative message with text and HTML parts.
func render(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
