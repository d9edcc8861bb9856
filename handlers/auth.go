package handlers

import (
	"log/slog"
	"net/http"

	"streamvault/services"
)

// Handler holds the services the HTTP endpoints call into.
type Handler struct {
	Sessions  *services.SessionStore
	Auth      *services.AuthService
	Resets    *services.PasswordResetService
	Catalog   *services.CatalogService
	Feedback  *services.FeedbackService
	Accounts  *services.AccountService
	Admin     *services.AdminService
	Analytics *services.AnalyticsService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	LoginID   string `json:"login_id"`
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	login, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Sessions.Login(w, r, login); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		LoginID:   login.LoginID,
		AccountID: login.AccountID,
		Username:  login.Username,
		Role:      login.Role,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Username == "" || in.Password == "" {
		writeError(w, r, services.ErrInvalidCredentials)
		return
	}

	login, err := h.Auth.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		slog.Info("Failed login attempt", "username", in.Username)
		writeError(w, r, err)
		return
	}
	if err := h.Sessions.Login(w, r, login); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		LoginID:   login.LoginID,
		AccountID: login.AccountID,
		Username:  login.Username,
		Role:      login.Role,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Clear(w, r); err != nil {
		slog.Warn("Failed to clear session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword answers the same way whether or not the address is known.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Resets.Request(r.Context(), in.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that email, a password reset link has been sent.",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Resets.Reset(r.Context(), in.Token, in.Password, in.ConfirmPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Your password has been reset. Please log in."})
}
