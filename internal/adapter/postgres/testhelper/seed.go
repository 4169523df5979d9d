package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedAccount creates an accounts row and returns the identity.
func SeedAccount(t *testing.T, pool *pgxpool.Pool) domain.Account {
	t.Helper()

	acc := domain.Account{
		AccountID: uuid.New(),
		Email:     "owner-" + uniqueSuffix() + "@example.com",
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO accounts (account_id, data) VALUES ($1, jsonb_build_object('email', $2::text)) RETURNING id`,
		acc.AccountID, acc.Email,
	).Scan(&acc.ClientID)
	if err != nil {
		t.Fatalf("testhelper: SeedAccount insert: %v", err)
	}

	return acc
}
