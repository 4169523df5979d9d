// Package gridfs implements the blob store on MongoDB GridFS. Each bucket
// name maps to a GridFS bucket; a blob path is the GridFS filename.
package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// Connect opens a MongoDB client and pings it for fail-fast validation.
func Connect(ctx context.Context, cfg config.StorageConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Store provides blob persistence on GridFS.
type Store struct {
	db         *mongo.Database
	publicBase string
}

// New creates a blob store on the given database. publicBase is the URL
// prefix under which the HTTP layer serves blobs.
func New(db *mongo.Database, publicBase string) *Store {
	return &Store{db: db, publicBase: strings.TrimRight(publicBase, "/")}
}

// Ping checks that the primary of the backing deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

type fileDoc struct {
	ID primitive.ObjectID `bson:"_id"`
}

// Upload writes body to bucket/path. Without opts.Upsert an existing blob
// at the same path yields domain.ErrAlreadyExists. With it, older
// revisions are removed once the new one is stored.
func (s *Store) Upload(ctx context.Context, bucket, path string, body io.Reader, opts domain.UploadOptions) error {
	if err := checkPath(bucket, path); err != nil {
		return err
	}

	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}

	existing, err := s.findIDs(ctx, b, path)
	if err != nil {
		return err
	}
	if len(existing) > 0 && !opts.Upsert {
		return fmt.Errorf("blob %s/%s: %w", bucket, path, domain.ErrAlreadyExists)
	}

	meta := bson.D{
		{Key: "contentType", Value: opts.ContentType},
		{Key: "cacheControl", Value: opts.CacheControl},
	}
	if _, err := b.UploadFromStream(path, body, options.GridFSUpload().SetMetadata(meta)); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}

	for _, id := range existing {
		if err := b.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("replace %s/%s: %w", bucket, path, err)
		}
	}
	return nil
}

// PublicURL returns the URL under which the blob is served.
func (s *Store) PublicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBase + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Remove deletes the blobs at the given paths. Missing paths are ignored.
func (s *Store) Remove(ctx context.Context, bucket string, paths ...string) error {
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range paths {
		ids, err := s.findIDs(ctx, b, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, id := range ids {
			if err := b.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
				errs = append(errs, fmt.Errorf("remove %s/%s: %w", bucket, p, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Open returns a reader over the latest revision of bucket/path.
// Returns domain.ErrNotFound if the blob does not exist.
func (s *Store) Open(ctx context.Context, bucket, path string) (io.ReadCloser, domain.BlobInfo, error) {
	if err := checkPath(bucket, path); err != nil {
		return nil, domain.BlobInfo{}, err
	}

	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, domain.BlobInfo{}, err
	}

	stream, err := b.OpenDownloadStreamByName(path)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.BlobInfo{}, fmt.Errorf("blob %s/%s: %w", bucket, path, domain.ErrNotFound)
		}
		return nil, domain.BlobInfo{}, fmt.Errorf("open %s/%s: %w", bucket, path, err)
	}

	file := stream.GetFile()
	info := domain.BlobInfo{Path: path, Size: file.Length}
	if v, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
		info.ContentType = v
	}
	if v, ok := file.Metadata.Lookup("cacheControl").AsInt64OK(); ok {
		info.CacheControl = int(v)
	}
	return stream, info, nil
}

// bucket opens a GridFS bucket bound to the context deadline. Buckets are
// cheap and carry per-operation deadlines, so one is created per call.
func (s *Store) bucket(ctx context.Context, name string) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = b.SetWriteDeadline(dl)
		_ = b.SetReadDeadline(dl)
	}
	return b, nil
}

func (s *Store) findIDs(ctx context.Context, b *gridfs.Bucket, path string) ([]primitive.ObjectID, error) {
	cur, err := b.FindContext(ctx, bson.M{"filename": path})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", path, err)
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc fileDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", path, err)
	}
	return ids, nil
}

func checkPath(bucket, path string) error {
	if bucket == "" {
		return domain.NewValidationError("bucket", "required")
	}
	if path == "" || strings.HasPrefix(path, "/") || strings.Contains(path, "..") {
		return domain.NewValidationError("path", "must be a relative path")
	}
	return nil
}
