// Package table implements an account-scoped row store over PostgreSQL.
// Every table has the shape (id, account_id, data jsonb, created_at,
// updated_at); open-ended fields live in data.
package table

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/presence-dashboard/internal/adapter/postgres"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

const returning = "RETURNING id, account_id, data, created_at, updated_at"

var columns = []string{"id", "account_id", "data", "created_at", "updated_at"}

// psql is the statement builder with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides record persistence for every dashboard table.
type Repo struct {
	q postgres.Querier
}

// New creates a new row repository. q is usually a *pgxpool.Pool.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

// SelectOne returns the single row of a singleton table for the account.
// Returns domain.ErrNotFound when no row exists.
func (r *Repo) SelectOne(ctx context.Context, d domain.Domain, accountID uuid.UUID) (domain.Record, error) {
	if err := checkDomain(d); err != nil {
		return nil, err
	}

	query, args, err := psql.Select(columns...).
		From(d.String()).
		Where(squirrel.Eq{"account_id": accountID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", d, err)
	}

	rec, err := scanRecord(postgres.QuerierFromCtx(ctx, r.q).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, d.String())
	}
	return rec, nil
}

// SelectMany returns the account's rows of a table.
func (r *Repo) SelectMany(ctx context.Context, d domain.Domain, accountID uuid.UUID, opts domain.ListOptions) ([]domain.Record, error) {
	if err := checkDomain(d); err != nil {
		return nil, err
	}

	b := psql.Select(columns...).
		From(d.String()).
		Where(squirrel.Eq{"account_id": accountID})

	if opts.OrderBy != "" {
		dir := "ASC"
		if opts.Desc {
			dir = "DESC"
		}
		b = b.OrderByClause(orderExpr(opts.OrderBy)+" "+dir, orderArgs(opts.OrderBy)...)
	}
	if opts.Limit > 0 {
		b = b.Limit(opts.Limit)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", d, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.q).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, d.String())
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, postgres.MapError(err, d.String())
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, d.String())
	}
	return out, nil
}

// Upsert inserts or merges the account's row of a singleton table. Keys in
// rec overwrite stored keys; keys absent from rec are kept.
func (r *Repo) Upsert(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error) {
	if err := checkDomain(d); err != nil {
		return nil, err
	}
	if d.IsCollection() {
		return nil, fmt.Errorf("upsert %s: %w", d, domain.NewValidationError("domain", "collection tables have no account key"))
	}

	data, err := encodeData(rec)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Insert(d.String()+" AS t").
		Columns("account_id", "data").
		Values(accountID, data).
		Suffix("ON CONFLICT (account_id) DO UPDATE SET data = t.data || EXCLUDED.data, updated_at = now() " + returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert %s: %w", d, err)
	}

	saved, err := scanRecord(postgres.QuerierFromCtx(ctx, r.q).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, d.String())
	}
	return saved, nil
}

// Insert adds a new row and returns it.
func (r *Repo) Insert(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error) {
	if err := checkDomain(d); err != nil {
		return nil, err
	}

	data, err := encodeData(rec)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Insert(d.String()).
		Columns("account_id", "data").
		Values(accountID, data).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert %s: %w", d, err)
	}

	saved, err := scanRecord(postgres.QuerierFromCtx(ctx, r.q).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, d.String())
	}
	return saved, nil
}

// Update merges rec into the row with the given id.
// Returns domain.ErrNotFound if the row does not belong to the account.
func (r *Repo) Update(ctx context.Context, d domain.Domain, accountID, id uuid.UUID, rec domain.Record) (domain.Record, error) {
	if err := checkDomain(d); err != nil {
		return nil, err
	}

	data, err := encodeData(rec)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Update(d.String()).
		Set("data", squirrel.Expr("data || ?", data)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "account_id": accountID}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update %s: %w", d, err)
	}

	saved, err := scanRecord(postgres.QuerierFromCtx(ctx, r.q).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, d.String())
	}
	return saved, nil
}

// Delete removes the row with the given id.
// Returns domain.ErrNotFound if nothing was deleted.
func (r *Repo) Delete(ctx context.Context, d domain.Domain, accountID, id uuid.UUID) error {
	if err := checkDomain(d); err != nil {
		return err
	}

	query, args, err := psql.Delete(d.String()).
		Where(squirrel.Eq{"id": id, "account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", d, err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.q).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, d.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", d, id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// checkDomain guards table names, which are interpolated into SQL.
func checkDomain(d domain.Domain) error {
	if !d.IsValid() {
		return domain.NewValidationError("domain", fmt.Sprintf("unknown table %q", d))
	}
	return nil
}

func orderExpr(key string) string {
	switch key {
	case domain.FieldCreatedAt, domain.FieldUpdatedAt:
		return key
	}
	return "data->>?"
}

func orderArgs(key string) []any {
	switch key {
	case domain.FieldCreatedAt, domain.FieldUpdatedAt:
		return nil
	}
	return []any{key}
}

func encodeData(rec domain.Record) ([]byte, error) {
	clean := rec.WithoutReserved()
	if clean == nil {
		clean = domain.Record{}
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// scanRecord reads one row and surfaces the reserved columns as record fields.
func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		id, accountID        uuid.UUID
		data                 []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &accountID, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rec := domain.Record{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	rec[domain.FieldID] = id.String()
	rec[domain.FieldAccountID] = accountID.String()
	rec[domain.FieldCreatedAt] = createdAt.UTC().Format(time.RFC3339Nano)
	rec[domain.FieldUpdatedAt] = updatedAt.UTC().Format(time.RFC3339Nano)
	return rec, nil
}
