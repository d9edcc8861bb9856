package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"streamvault/config"
	"streamvault/database"
	"streamvault/models"
	"streamvault/security"
)

type RegisterInput struct {
	Username        string  `json:"username" validate:"required,username"`
	Password        string  `json:"password" validate:"required,password"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
	Email           string  `json:"email" validate:"required,email,max=100"`
	FirstName       string  `json:"first_name" validate:"required,max=30"`
	MiddleName      string  `json:"middle_name" validate:"max=30"`
	LastName        string  `json:"last_name" validate:"required,max=30"`
	StreetAddr      string  `json:"street_addr" validate:"required,max=100"`
	City            string  `json:"city" validate:"required,max=30"`
	State           string  `json:"state" validate:"required,max=30"`
	PostalCode      string  `json:"postal_code" validate:"required,max=10"`
	CountryID       string  `json:"country_id" validate:"required,max=12"`
	Subscription    float64 `json:"monthly_subscription" validate:"gte=0"`
}

type AuthService struct {
	store *database.Store
}

func NewAuthService(store *database.Store) *AuthService {
	return &AuthService{store: store}
}

// Register creates a customer account and its login as one unit of work.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Login, error) {
	return s.createAccount(ctx, in, models.RoleCustomer)
}

// CreateEmployee creates an employee account. Employees carry no
// subscription.
func (s *AuthService) CreateEmployee(ctx context.Context, in RegisterInput) (*models.Login, error) {
	in.Subscription = 0
	return s.createAccount(ctx, in, models.RoleEmployee)
}

func (s *AuthService) createAccount(ctx context.Context, in RegisterInput, role string) (*models.Login, error) {
	if err := security.Validate(in); err != nil {
		return nil, err
	}

	// Hash outside the transaction so row locks are not held during bcrypt.
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	accountPrefix := "ACC"
	if role == models.RoleEmployee {
		accountPrefix = "EMP"
	}

	login, err := database.InTx(ctx, s.store, func(tx *sql.Tx) (*models.Login, error) {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM logins WHERE username = $1)", in.Username,
		).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, conflict("username already exists")
		}

		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM user_accounts WHERE email_addr = $1)", in.Email,
		).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, conflict("email already registered")
		}

		var countryName string
		err := tx.QueryRowContext(ctx,
			"SELECT country_name FROM countries WHERE country_id = $1", in.CountryID,
		).Scan(&countryName)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, security.NewValidationError("Please select a valid country")
		}
		if err != nil {
			return nil, err
		}

		accountID := security.GenerateID(accountPrefix)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_accounts (account_id, first_name, middle_name, last_name, email_addr,
				street_addr, city, state, postal_code, country, monthly_subscription, country_id)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			accountID, in.FirstName, in.MiddleName, in.LastName, in.Email,
			in.StreetAddr, in.City, in.State, in.PostalCode, countryName, in.Subscription, in.CountryID,
		); err != nil {
			return nil, err
		}

		login := &models.Login{
			LoginID:   security.GenerateID("LOG"),
			AccountID: accountID,
			Username:  in.Username,
			Role:      role,
			CreatedAt: time.Now(),
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO logins (login_id, account_id, username, password_hash, role) VALUES ($1, $2, $3, $4, $5)",
			login.LoginID, login.AccountID, login.Username, hash, login.Role,
		); err != nil {
			return nil, err
		}
		return login, nil
	})
	if err != nil {
		return nil, mapConstraintError(err, "account")
	}

	slog.Info("Account created", "login_id", login.LoginID, "username", login.Username, "role", role)
	return login, nil
}

// Authenticate verifies credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.Login, error) {
	login, err := s.loginBy(ctx, "username", username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !security.CheckPassword(password, login.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.store.Exec(ctx, "UPDATE logins SET last_login = NOW() WHERE login_id = $1", login.LoginID); err != nil {
		slog.Warn("Failed to record last login", "login_id", login.LoginID, "error", err)
	}
	return login, nil
}

func (s *AuthService) GetLogin(ctx context.Context, loginID string) (*models.Login, error) {
	return s.loginBy(ctx, "login_id", loginID)
}

func (s *AuthService) loginBy(ctx context.Context, column, value string) (*models.Login, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}

	var login models.Login
	var lastLogin sql.NullTime
	// column is one of two fixed identifiers, never user input.
	err = q.QueryRowContext(ctx,
		"SELECT login_id, account_id, username, password_hash, role, created_at, last_login FROM logins WHERE "+column+" = $1",
		value,
	).Scan(&login.LoginID, &login.AccountID, &login.Username, &login.PasswordHash, &login.Role, &login.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		login.LastLogin = &lastLogin.Time
	}
	return &login, nil
}

// SeedEmployee creates the bootstrap employee from ADMIN_* settings. It is a
// no-op without ADMIN_PASSWORD or when the username is taken.
func (s *AuthService) SeedEmployee(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		return nil
	}

	_, err := s.loginBy(ctx, "username", cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to check for existing admin user: %w", err)
	}

	country, err := s.store.QueryOne(ctx, "SELECT country_id FROM countries ORDER BY country_id LIMIT 1")
	if err != nil {
		return fmt.Errorf("failed to pick a country for admin user: %w", err)
	}

	_, err = s.CreateEmployee(ctx, RegisterInput{
		Username:        cfg.AdminUsername,
		Password:        cfg.AdminPassword,
		ConfirmPassword: cfg.AdminPassword,
		Email:           cfg.AdminEmail,
		FirstName:       "Admin",
		LastName:        "User",
		StreetAddr:      "N/A",
		City:            "N/A",
		State:           "N/A",
		PostalCode:      "00000",
		CountryID:       interfaceToString(country["country_id"]),
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}
