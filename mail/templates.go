package mail

import (
	"fmt"
	"html"
)

const passwordResetSubject = "StreamVault - Password Reset Instructions"

// PasswordResetMessage builds the reset email for to, linking to resetURL.
func PasswordResetMessage(to, username, resetURL string) Message {
	text := fmt.Sprintf(`Hello %s,

We received a request to reset the password for your StreamVault account.

To reset your password, open the following link:
%s

This link will expire in 1 hour.

If you did not request a password reset, you can ignore this email. Your password will not change.

The StreamVault Team
`, username, resetURL)

	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>StreamVault</h2>
  <p>Hello %s,</p>
  <p>We received a request to reset the password for your StreamVault account.</p>
  <p><a href="%s" style="background: #e50914; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
  <p>This link will expire in <strong>1 hour</strong>.</p>
  <p>If you did not request a password reset, you can ignore this email.</p>
  <p>The StreamVault Team</p>
</body>
</html>
`, html.EscapeString(username), html.EscapeString(resetURL))

	return Message{
		To:      []string{to},
		Subject: passwordResetSubject,
		Text:    text,
		HTML:    body,
	}
}
