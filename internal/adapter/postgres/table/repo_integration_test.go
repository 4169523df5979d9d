package table_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres/table"
	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

func TestRepo_Integration_UpsertIsIdempotent(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := table.New(pool)
	acc := testhelper.SeedAccount(t, pool)
	ctx := context.Background()

	payload := domain.Record{"business_name": "Acme", "primary_industry": "Retail"}

	first, err := repo.Upsert(ctx, domain.DomainBusinessInfo, acc.AccountID, payload)
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, domain.DomainBusinessInfo, acc.AccountID, payload)
	require.NoError(t, err)

	assert.Equal(t, first[domain.FieldID], second[domain.FieldID])
	assert.Equal(t, first.WithoutReserved(), second.WithoutReserved())

	rows, err := repo.SelectMany(ctx, domain.DomainBusinessInfo, acc.AccountID, domain.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepo_Integration_UpsertMergesColumns(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := table.New(pool)
	acc := testhelper.SeedAccount(t, pool)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, domain.DomainBrandAssets, acc.AccountID, domain.Record{"tagline": "Fresh daily"})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, domain.DomainBrandAssets, acc.AccountID, domain.Record{"mission_statement": "Feed the town"})
	require.NoError(t, err)

	got, err := repo.SelectOne(ctx, domain.DomainBrandAssets, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh daily", got["tagline"])
	assert.Equal(t, "Feed the town", got["mission_statement"])
}

func TestRepo_Integration_CollectionLifecycle(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := table.New(pool)
	acc := testhelper.SeedAccount(t, pool)
	ctx := context.Background()

	for _, site := range []string{"Yelp", "Bing Places", "Apple Maps"} {
		_, err := repo.Insert(ctx, domain.DomainCitations, acc.AccountID, domain.Record{"site_name": site})
		require.NoError(t, err)
	}

	list, err := repo.SelectMany(ctx, domain.DomainCitations, acc.AccountID, domain.ListOptions{OrderBy: "site_name"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Apple Maps", list[0]["site_name"])

	id, ok := list[0].ID()
	require.True(t, ok)
	require.NoError(t, repo.Delete(ctx, domain.DomainCitations, acc.AccountID, id))
	require.ErrorIs(t, repo.Delete(ctx, domain.DomainCitations, acc.AccountID, id), domain.ErrNotFound)

	// Rows of other accounts are invisible.
	other, err := repo.SelectMany(ctx, domain.DomainCitations, uuid.New(), domain.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepo_Integration_SelectOneMissing(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := table.New(pool)
	acc := testhelper.SeedAccount(t, pool)

	_, err := repo.SelectOne(context.Background(), domain.DomainWebsiteInfo, acc.AccountID)

	require.ErrorIs(t, err, domain.ErrNotFound)
}
