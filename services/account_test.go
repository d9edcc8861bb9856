package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamvault/database"
	"streamvault/models"
	"streamvault/security"
)

var profileColumns = []string{"account_id", "first_name", "middle_name", "last_name", "email_addr", "street_addr",
	"city", "state", "postal_code", "country", "country_id", "date_created", "monthly_subscription", "username", "role"}

func validAccountUpdate() AccountUpdateInput {
	return AccountUpdateInput{
		FirstName:  "Ann",
		LastName:   "Viewer",
		Email:      "ann@example.com",
		StreetAddr: "1 Main St",
		City:       "Toronto",
		State:      "ON",
		PostalCode: "M5V 2T6",
	}
}

func TestProfile(t *testing.T) {
	store, mock := newTestStore(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM user_accounts ua JOIN logins").WithArgs("ACC0001").WillReturnRows(
		sqlmock.NewRows(profileColumns).AddRow("ACC0001", "Ann", nil, "Viewer", "ann@example.com", "1 Main St",
			"Toronto", "ON", "M5V 2T6", "Canada", "C002", created, 9.99, "ann_viewer", models.RoleCustomer))

	a, err := NewAccountService(store).Profile(context.Background(), "ACC0001")
	require.NoError(t, err)
	assert.Equal(t, "Ann", a.FirstName)
	assert.Empty(t, a.MiddleName)
	assert.Equal(t, "ann_viewer", a.Username)
	assert.Equal(t, 9.99, a.MonthlySubscription)
	assert.Equal(t, created, a.DateCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUnknownAccount(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery("FROM user_accounts ua JOIN logins").WithArgs("ACC9999").
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err := NewAccountService(store).Profile(context.Background(), "ACC9999")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("writes every field", func(t *testing.T) {
		store, mock := newTestStore(t)
		in := validAccountUpdate()
		mock.ExpectExec("UPDATE user_accounts").
			WithArgs("Ann", "", "Viewer", "ann@example.com", "1 Main St", "Toronto", "ON", "M5V 2T6", "ACC0001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewAccountService(store).Update(ctx, "ACC0001", in))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid input never reaches the database", func(t *testing.T) {
		store, mock := newTestStore(t)
		in := validAccountUpdate()
		in.Email = "not-an-email"

		var verr *security.ValidationError
		require.True(t, errors.As(NewAccountService(store).Update(ctx, "ACC0001", in), &verr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email taken", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectExec("UPDATE user_accounts").WillReturnError(&pgconn.PgError{Code: "23505"})

		err := NewAccountService(store).Update(ctx, "ACC0001", validAccountUpdate())
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectExec("UPDATE user_accounts").WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewAccountService(store).Update(ctx, "ACC9999", validAccountUpdate())
		assert.ErrorIs(t, err, database.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
