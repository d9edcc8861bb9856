package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"streamvault/database"
	"streamvault/models"
	"streamvault/security"
)

type AccountUpdateInput struct {
	FirstName  string `json:"first_name" validate:"required,max=30"`
	MiddleName string `json:"middle_name" validate:"max=30"`
	LastName   string `json:"last_name" validate:"required,max=30"`
	Email      string `json:"email" validate:"required,email,max=100"`
	StreetAddr string `json:"street_addr" validate:"required,max=100"`
	City       string `json:"city" validate:"required,max=30"`
	State      string `json:"state" validate:"required,max=30"`
	PostalCode string `json:"postal_code" validate:"required,max=10"`
}

type AccountService struct {
	store *database.Store
}

func NewAccountService(store *database.Store) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}

	var a models.Account
	var middle sql.NullString
	err = q.QueryRowContext(ctx, `
		SELECT ua.account_id, ua.first_name, ua.middle_name, ua.last_name, ua.email_addr, ua.street_addr,
			ua.city, ua.state, ua.postal_code, ua.country, ua.country_id, ua.date_created,
			ua.monthly_subscription::float8, l.username, l.role
		FROM user_accounts ua JOIN logins l ON l.account_id = ua.account_id
		WHERE ua.account_id = $1`, accountID,
	).Scan(&a.AccountID, &a.FirstName, &middle, &a.LastName, &a.Email, &a.StreetAddr,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.CountryID, &a.DateCreated,
		&a.MonthlySubscription, &a.Username, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.MiddleName = middle.String
	return &a, nil
}

func (s *AccountService) Update(ctx context.Context, accountID string, in AccountUpdateInput) error {
	if err := security.Validate(in); err != nil {
		return err
	}

	n, err := s.store.Exec(ctx, `
		UPDATE user_accounts
		SET first_name = $1, middle_name = NULLIF($2, ''), last_name = $3, email_addr = $4,
			street_addr = $5, city = $6, state = $7, postal_code = $8
		WHERE account_id = $9`,
		in.FirstName, in.MiddleName, in.LastName, in.Email,
		in.StreetAddr, in.City, in.State, in.PostalCode, accountID)
	if err != nil {
		return mapConstraintError(err, "email")
	}
	if n == 0 {
		return database.ErrNotFound
	}

	slog.Info("Account updated", "account_id", accountID)
	return nil
}
