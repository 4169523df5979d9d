package gridfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

func TestStore_PublicURL(t *testing.T) {
	t.Parallel()

	s := New(nil, "https://cdn.example.com/storage/")

	got := s.PublicURL("brand-logos", "9b1c/logo_primary_1700000000000.png")

	assert.Equal(t, "https://cdn.example.com/storage/brand-logos/9b1c/logo_primary_1700000000000.png", got)
}

func TestCheckPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bucket, path string
		ok           bool
	}{
		{"certificates", "acc/certificate_1.pdf", true},
		{"", "acc/x.pdf", false},
		{"certificates", "", false},
		{"certificates", "/abs.pdf", false},
		{"certificates", "acc/../other/x.pdf", false},
	}

	for _, tt := range tests {
		err := checkPath(tt.bucket, tt.path)
		if tt.ok {
			assert.NoError(t, err, "%s/%s", tt.bucket, tt.path)
		} else {
			assert.ErrorIs(t, err, domain.ErrValidation, "%s/%s", tt.bucket, tt.path)
		}
	}
}

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	if testing.Short() {
		t.Skip("gridfs: integration test skipped in -short mode")
	}

	mongoOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:7",
				ExposedPorts: []string{"27017/tcp"},
				WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			mongoErr = err
			return
		}
		host, err := container.Host(ctx)
		if err != nil {
			mongoErr = err
			return
		}
		port, err := container.MappedPort(ctx, "27017")
		if err != nil {
			mongoErr = err
			return
		}
		mongoURI = fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	})
	require.NoError(t, mongoErr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(fmt.Sprintf("blobs_%d", time.Now().UnixNano()))
	return New(db, "http://localhost/storage")
}

func TestStore_Integration_Ping(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.Ping(context.Background()))
}

func TestStore_Integration_UploadOpenRemove(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Upload(ctx, "brand-logos", "acc/logo_primary_1.png", bytes.NewReader([]byte("v1")),
		domain.UploadOptions{ContentType: "image/png", CacheControl: 3600, Upsert: true})
	require.NoError(t, err)

	// Upsert replaces the previous revision.
	err = s.Upload(ctx, "brand-logos", "acc/logo_primary_1.png", bytes.NewReader([]byte("v2")),
		domain.UploadOptions{ContentType: "image/png", CacheControl: 3600, Upsert: true})
	require.NoError(t, err)

	rc, info, err := s.Open(ctx, "brand-logos", "acc/logo_primary_1.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "v2", string(body))
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, 3600, info.CacheControl)
	assert.Equal(t, int64(2), info.Size)

	require.NoError(t, s.Remove(ctx, "brand-logos", "acc/logo_primary_1.png", "acc/missing.png"))

	_, _, err = s.Open(ctx, "brand-logos", "acc/logo_primary_1.png")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func TestStore_Integration_NoUpsertConflict(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	opts := domain.UploadOptions{ContentType: "application/pdf", CacheControl: 3600}
	require.NoError(t, s.Upload(ctx, "certificates", "acc/certificate_1.pdf", bytes.NewReader([]byte("%PDF")), opts))

	err := s.Upload(ctx, "certificates", "acc/certificate_1.pdf", bytes.NewReader([]byte("%PDF")), opts)

	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}
