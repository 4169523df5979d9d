package postgres_test

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRunInTx_Commit(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acc").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, mock)
		_, err := q.Exec(ctx, `INSERT INTO accounts (account_id) VALUES ($1)`, "acc")
		return err
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)
	sentinel := errors.New("business logic error")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.PanicsWithValue(t, "test panic", func() {
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			panic("test panic")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_BeginFails(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	require.False(t, called)
}

func TestQuerierFromCtx_FallsBackOutsideTx(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)

	q := postgres.QuerierFromCtx(context.Background(), mock)

	require.Equal(t, mock, q)
}
