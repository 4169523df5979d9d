// Package token persists revoked session tokens in PostgreSQL.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/presence-dashboard/internal/adapter/postgres"
)

const entity = "revoked_token"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides revoked-token persistence backed by PostgreSQL.
type Repo struct {
	q postgres.Querier
}

// New creates a new token repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

// Revoke records a token id as revoked until it would have expired anyway.
// Idempotent: revoking an already-revoked token is not an error.
func (r *Repo) Revoke(ctx context.Context, jti string, accountID uuid.UUID, expiresAt time.Time) error {
	query, args, err := psql.Insert("revoked_tokens").
		Columns("jti", "account_id", "expires_at").
		Values(jti, accountID, expiresAt).
		Suffix("ON CONFLICT (jti) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.q).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, entity)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked.
func (r *Repo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS(").
		From("revoked_tokens").
		Where(squirrel.Eq{"jti": jti}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build is-revoked: %w", err)
	}

	var exists bool
	if err := postgres.QuerierFromCtx(ctx, r.q).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, postgres.MapError(err, entity)
	}
	return exists, nil
}

// DeleteExpired removes revocations whose tokens have expired.
// Returns the count of deleted rows.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psql.Delete("revoked_tokens").
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete expired: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.q).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, entity)
	}
	return tag.RowsAffected(), nil
}
