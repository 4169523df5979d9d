package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres/token"
)

func newRepo(t *testing.T) (*token.Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return token.New(mock), mock
}

func TestRepo_Revoke(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	accountID := uuid.New()
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO revoked_tokens \(jti,account_id,expires_at\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(jti\) DO NOTHING`).
		WithArgs("jti-1", accountID, exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Revoke(context.Background(), "jti-1", accountID, exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_IsRevoked(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT EXISTS\( SELECT 1 FROM revoked_tokens WHERE jti = \$1 \)`).
		WithArgs("jti-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := repo.IsRevoked(context.Background(), "jti-1")

	require.NoError(t, err)
	assert.True(t, revoked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_IsRevoked_Error(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("jti-1").
		WillReturnError(errors.New("conn closed"))

	_, err := repo.IsRevoked(context.Background(), "jti-1")

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_DeleteExpired(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectExec(`DELETE FROM revoked_tokens WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteExpired(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
