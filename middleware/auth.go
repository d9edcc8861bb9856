package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"streamvault/database"
	"streamvault/models"
	"streamvault/services"
)

type contextKey struct{}

// LoginLookup resolves a login id to its current record.
type LoginLookup interface {
	GetLogin(ctx context.Context, loginID string) (*models.Login, error)
}

// User returns the signed-in user attached by RequireAuth.
func User(ctx context.Context) (*services.SessionUser, bool) {
	u, ok := ctx.Value(contextKey{}).(*services.SessionUser)
	return u, ok
}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *services.SessionUser) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func deny(w http.ResponseWriter, r *http.Request, status int, reason string) {
	slog.Debug("Access denied", "path", r.URL.Path, "reason", reason)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}

// RequireAuth rejects requests without a session, and sessions whose login
// no longer exists. A failed lookup leaves the session in place. The login's current role wins over the one stored in
// the cookie.
func RequireAuth(sessions *services.SessionStore, logins LoginLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := sessions.Current(r)
			if !ok {
				deny(w, r, http.StatusUnauthorized, "no session")
				return
			}

			login, err := logins.GetLogin(r.Context(), user.LoginID)
			switch {
			case errors.Is(err, database.ErrNotFound):
				slog.Info("Session login no longer valid", "login_id", user.LoginID)
				_ = sessions.Clear(w, r)
				deny(w, r, http.StatusUnauthorized, "login not found")
				return
			case errors.Is(err, database.ErrContention):
				slog.Warn("Login lookup hit contention", "login_id", user.LoginID, "error", err)
				deny(w, r, http.StatusServiceUnavailable, "login lookup contention")
				return
			case err != nil:
				slog.Error("Failed to load session login", "login_id", user.LoginID, "error", err)
				deny(w, r, http.StatusInternalServerError, "login lookup failed")
				return
			}
			user.Role = login.Role
			user.AccountID = login.AccountID

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireEmployee must run after RequireAuth.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := User(r.Context())
		if !ok {
			deny(w, r, http.StatusUnauthorized, "no user in context")
			return
		}
		if !user.IsEmployee() {
			deny(w, r, http.StatusForbidden, "role "+user.Role)
			return
		}
		next.ServeHTTP(w, r)
	})
}
