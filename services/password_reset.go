package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"streamvault/database"
	"streamvault/mail"
	"streamvault/metrics"
	"streamvault/security"
)

type PasswordResetService struct {
	store   *database.Store
	mailer  mail.Mailer
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewPasswordResetService(store *database.Store, mailer mail.Mailer, baseURL string, ttl time.Duration) *PasswordResetService {
	return &PasswordResetService{
		store:   store,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Request issues a reset token for the login registered under email and
// mails the link. Unknown addresses and undeliverable mail succeed silently.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	row, err := s.store.QueryOne(ctx, `
		SELECT l.login_id, l.username
		FROM logins l
		JOIN user_accounts ua ON ua.account_id = l.account_id
		WHERE LOWER(ua.email_addr) = LOWER($1)`, email)
	if errors.Is(err, database.ErrNotFound) {
		slog.Debug("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	loginID := interfaceToString(row["login_id"])
	token := security.NewToken()
	if _, err := s.store.Exec(ctx,
		"INSERT INTO password_resets (token, login_id, expires_at) VALUES ($1, $2, $3)",
		token, loginID, s.now().Add(s.ttl),
	); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := s.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	msg := mail.PasswordResetMessage(email, interfaceToString(row["username"]), link)
	if err := s.mailer.Send(ctx, msg); err != nil {
		// The caller must not learn whether the address is registered.
		metrics.ResetMailFailures.Inc()
		slog.Error("Failed to send reset email", "login_id", loginID, "error", err)
		return nil
	}

	slog.Info("Password reset issued", "login_id", loginID)
	return nil
}

// Reset sets a new password using token. The token is consumed in the same
// transaction as the password change.
func (s *PasswordResetService) Reset(ctx context.Context, token, password, confirm string) error {
	if problem := security.ValidatePassword(password); problem != "" {
		return security.NewValidationError(problem)
	}
	if password != confirm {
		return security.NewValidationError("Passwords do not match")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var loginID string
		var expiresAt time.Time
		var usedAt sql.NullTime
		err := tx.QueryRowContext(ctx,
			"SELECT login_id, expires_at, used_at FROM password_resets WHERE token = $1 FOR UPDATE",
			token,
		).Scan(&loginID, &expiresAt, &usedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if usedAt.Valid || !s.now().Before(expiresAt) {
			return ErrInvalidToken
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE logins SET password_hash = $1 WHERE login_id = $2", hash, loginID,
		); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE password_resets SET used_at = $1 WHERE token = $2", s.now(), token,
		)
		return err
	})
}

// PurgeExpired removes used and expired tokens.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.Exec(ctx,
		"DELETE FROM password_resets WHERE expires_at < $1 OR used_at IS NOT NULL", s.now())
}
