package services

import (
	"net/http"

	"github.com/gorilla/sessions"

	"streamvault/config"
	"streamvault/models"
)

const sessionName = "streamvault-session"

// SessionUser is the identity stored in the session cookie.
type SessionUser struct {
	LoginID   string
	AccountID string
	Username  string
	Role      string
}

func (u *SessionUser) IsEmployee() bool {
	return u.Role == models.RoleEmployee
}

type SessionStore struct {
	store *sessions.CookieStore
}

func NewSessionStore(cfg *config.Config) *SessionStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

func (s *SessionStore) Get(r *http.Request) (*sessions.Session, error) {
	return s.store.Get(r, sessionName)
}

// Login starts a fresh session for login.
func (s *SessionStore) Login(w http.ResponseWriter, r *http.Request, login *models.Login) error {
	session, err := s.Get(r)
	if err != nil {
		// A cookie signed with an old secret still yields a usable new session.
		session, _ = s.store.New(r, sessionName)
	}
	session.Values = map[any]any{
		"login_id":   login.LoginID,
		"account_id": login.AccountID,
		"username":   login.Username,
		"role":       login.Role,
	}
	return session.Save(r, w)
}

// Current returns the signed-in user, if any.
func (s *SessionStore) Current(r *http.Request) (*SessionUser, bool) {
	session, err := s.Get(r)
	if err != nil {
		return nil, false
	}
	loginID, _ := session.Values["login_id"].(string)
	if loginID == "" {
		return nil, false
	}
	accountID, _ := session.Values["account_id"].(string)
	username, _ := session.Values["username"].(string)
	role, _ := session.Values["role"].(string)
	return &SessionUser{
		LoginID:   loginID,
		AccountID: accountID,
		Username:  username,
		Role:      role,
	}, true
}

func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.Get(r)
	if err != nil {
		session, _ = s.store.New(r, sessionName)
	}
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
