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
	"streamvault/security"
)

func primeSeriesByType(t *testing.T, store *database.Store, mock sqlmock.Sqlmock) {
	t.Helper()
	mock.ExpectQuery("FROM series_types").WillReturnRows(
		sqlmock.NewRows([]string{"ws_type_name", "series_count"}).AddRow("Drama", int64(3)))
	_, err := NewAnalyticsService(store, 0).SeriesByType(context.Background())
	require.NoError(t, err)
}

func TestDeleteSeriesRollsBackOnFailure(t *testing.T) {
	store, mock := newTestStore(t)
	primeSeriesByType(t, store, mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM schedules").WithArgs("WS0001").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM episodes").WithArgs("WS0001").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := NewAdminService(store).DeleteSeries(context.Background(), "WS0001")
	assert.EqualError(t, err, "disk full")

	stats, _ := store.CacheStats()
	assert.Equal(t, []string{"series_by_type"}, stats.Keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSeriesCommitsAndInvalidates(t *testing.T) {
	store, mock := newTestStore(t)
	primeSeriesByType(t, store, mock)

	mock.ExpectBegin()
	for _, table := range []string{"schedules", "episodes", "contracts", "feedback",
		"series_type_links", "series_countries", "series_dubbing", "series_subtitles"} {
		mock.ExpectExec("DELETE FROM " + table).WithArgs("WS0001").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("DELETE FROM web_series").WithArgs("WS0001").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewAdminService(store).DeleteSeries(context.Background(), "WS0001"))

	stats, _ := store.CacheStats()
	assert.Zero(t, stats.Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSeriesMissingRollsBack(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	for range 8 {
		mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("DELETE FROM web_series").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewAdminService(store).DeleteSeries(context.Background(), "WS9999")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProductionHouseWithSeriesConflicts(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WithArgs("PH0001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectRollback()

	err := NewAdminService(store).DeleteProductionHouse(context.Background(), "PH0001")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContractRejectsInvertedDates(t *testing.T) {
	store, mock := newTestStore(t)

	_, err := NewAdminService(store).CreateContract(context.Background(), ContractInput{
		WsID:        "WS0001",
		PerEpCharge: 1500,
		StartDate:   "2026-06-01",
		EndDate:     "2026-01-01",
	})
	var verr *security.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "Contract end date must be after start date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssociationOpenEnded(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO producer_production_houses").
		WithArgs("PR0001", "PH0001", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewAdminService(store).CreateAssociation(context.Background(), AssociationInput{
		ProducerID:   "PR0001",
		PhID:         "PH0001",
		AllianceDate: "2024-03-15",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductionHouse(t *testing.T) {
	ctx := context.Background()
	in := ProductionHouseInput{
		Name: "Northlight Studios", StreetAddr: "9 Dock Rd", City: "Vancouver",
		State: "BC", PostalCode: "V6B 1A1", Country: "Canada", YearEstablished: 1998,
	}

	t.Run("commits and invalidates", func(t *testing.T) {
		store, mock := newTestStore(t)
		primeSeriesByType(t, store, mock)
		mock.ExpectExec("UPDATE production_houses").
			WithArgs("Northlight Studios", "9 Dock Rd", "Vancouver", "BC", "V6B 1A1", "Canada", 1998, "PH0001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewAdminService(store).UpdateProductionHouse(ctx, "PH0001", in))

		stats, _ := store.CacheStats()
		assert.Zero(t, stats.Entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown house keeps the cache", func(t *testing.T) {
		store, mock := newTestStore(t)
		primeSeriesByType(t, store, mock)
		mock.ExpectExec("UPDATE production_houses").WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewAdminService(store).UpdateProductionHouse(ctx, "PH9999", in)
		assert.ErrorIs(t, err, database.ErrNotFound)

		stats, _ := store.CacheStats()
		assert.Equal(t, []string{"series_by_type"}, stats.Keys)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("future founding year", func(t *testing.T) {
		store, mock := newTestStore(t)
		future := in
		future.YearEstablished = 3000

		var verr *security.ValidationError
		require.ErrorAs(t, NewAdminService(store).UpdateProductionHouse(ctx, "PH0001", future), &verr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProducer(t *testing.T) {
	ctx := context.Background()
	in := ProducerInput{
		FirstName: "Maya", LastName: "Ortiz", Email: "maya@northlight.example", Phone: "555-0101",
		StreetAddr: "9 Dock Rd", City: "Vancouver", State: "BC", PostalCode: "V6B 1A1", Country: "Canada",
	}

	t.Run("commits and invalidates", func(t *testing.T) {
		store, mock := newTestStore(t)
		primeSeriesByType(t, store, mock)
		mock.ExpectExec("UPDATE producers").
			WithArgs("Maya", "Ortiz", "maya@northlight.example", "555-0101", "9 Dock Rd",
				"Vancouver", "BC", "V6B 1A1", "Canada", "PR0001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewAdminService(store).UpdateProducer(ctx, "PR0001", in))

		stats, _ := store.CacheStats()
		assert.Zero(t, stats.Entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectExec("UPDATE producers").WillReturnError(&pgconn.PgError{Code: "23505"})

		err := NewAdminService(store).UpdateProducer(ctx, "PR0001", in)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateContract(t *testing.T) {
	ctx := context.Background()
	in := ContractInput{WsID: "WS0002", PerEpCharge: 1800, StartDate: "2026-01-01", EndDate: "2026-12-31"}

	t.Run("commits and invalidates", func(t *testing.T) {
		store, mock := newTestStore(t)
		primeSeriesByType(t, store, mock)
		mock.ExpectExec("UPDATE contracts").
			WithArgs("WS0002", 1800.0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), "CON0001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewAdminService(store).UpdateContract(ctx, "CON0001", in))

		stats, _ := store.CacheStats()
		assert.Zero(t, stats.Entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inverted dates never reach the database", func(t *testing.T) {
		store, mock := newTestStore(t)
		bad := in
		bad.StartDate, bad.EndDate = bad.EndDate, bad.StartDate

		var verr *security.ValidationError
		require.ErrorAs(t, NewAdminService(store).UpdateContract(ctx, "CON0001", bad), &verr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("charge rejected by the schema", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectExec("UPDATE contracts").
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "contracts_per_ep_charge_check"})

		var verr *security.ValidationError
		require.ErrorAs(t, NewAdminService(store).UpdateContract(ctx, "CON0001", in), &verr)
		assert.Equal(t, []string{"contract has an invalid value (contracts_per_ep_charge_check)"}, verr.Problems)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
