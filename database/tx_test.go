package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, opts ...StoreOption) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, opts...), mock
}

const bumpViewers = "UPDATE episodes SET total_viewers = total_viewers + 1 WHERE ep_id = $1"

func bumpViewersTx(ctx context.Context) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, bumpViewers, "EP0001")
		return err
	}
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE episodes").WithArgs("EP0001").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Transaction(ctx, bumpViewersTx(ctx)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRetriesLockConflictThenCommitsOnce(t *testing.T) {
	ctx := context.Background()
	var sleeps []time.Duration
	policy := recordingPolicy(&sleeps)
	retries := 0
	policy.OnRetry = func(int, time.Duration, error) { retries++ }
	store, mock := newMockStore(t, WithRetryPolicy(policy))

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE episodes").WillReturnError(errDeadlock)
		mock.ExpectRollback()
	}
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE episodes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	calls := 0
	err := store.Transaction(ctx, func(tx *sql.Tx) error {
		calls++
		return bumpViewersTx(ctx)(tx)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
	assert.Len(t, sleeps, 2)
	assert.NoError(t, mock.ExpectationsWereMet(), "exactly one commit")
}

func TestTransactionPersistentLockConflict(t *testing.T) {
	ctx := context.Background()
	var sleeps []time.Duration
	store, mock := newMockStore(t, WithRetryPolicy(recordingPolicy(&sleeps)))

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE episodes").WillReturnError(errLockTimeout)
		mock.ExpectRollback()
	}

	err := store.Transaction(ctx, bumpViewersTx(ctx))

	require.ErrorIs(t, err, ErrContention)
	assert.True(t, IsLockConflict(err))
	assert.Len(t, sleeps, 2)
	assert.NoError(t, mock.ExpectationsWereMet(), "no commit is issued")
}

func TestTransactionNonLockErrorRollsBackWithoutRetry(t *testing.T) {
	ctx := context.Background()
	var sleeps []time.Duration
	store, mock := newMockStore(t, WithRetryPolicy(recordingPolicy(&sleeps)))
	boom := errors.New("relation \"episodes\" does not exist")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE episodes").WillReturnError(boom)
	mock.ExpectRollback()

	calls := 0
	err := store.Transaction(ctx, func(tx *sql.Tx) error {
		calls++
		return bumpViewersTx(ctx)(tx)
	})

	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrContention)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRetriesLockConflictOnCommit(t *testing.T) {
	ctx := context.Background()
	var sleeps []time.Duration
	store, mock := newMockStore(t, WithRetryPolicy(recordingPolicy(&sleeps)))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE episodes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errDeadlock)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE episodes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Transaction(ctx, bumpViewersTx(ctx)))
	assert.Len(t, sleeps, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = store.Transaction(ctx, func(tx *sql.Tx) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxReturnsValue(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectCommit()

	n, err := InTx(ctx, store, func(tx *sql.Tx) (int64, error) {
		var n int64
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM episodes").Scan(&n)
		return n, err
	})

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
