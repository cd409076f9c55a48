package storage

import (
	"context"
	"errors"
	"io"

	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// GridFSStore is the content-store backend. The ref it returns is the hex
// GridFS file id, kept in file metadata as gridfs_file_id.
type GridFSStore struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &GridFSStore{db: db, bucket: bucket}, nil
}

func (s *GridFSStore) Kind() string { return models.StorageGridFS }

func (s *GridFSStore) Put(ctx context.Context, name string, contentType string, r io.Reader) (string, int64, error) {
	// UploadFromStream buffers through the bucket's chunking writer; size
	// is counted here because GridFS only exposes it after the upload.
	counted := &countingReader{r: r}

	id, err := s.bucket.UploadFromStream(name, counted)
	if err != nil {
		return "", 0, err
	}
	return id.Hex(), counted.n, nil
}

func (s *GridFSStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, utils.ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStream(id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (s *GridFSStore) Delete(_ context.Context, ref string) error {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return utils.ErrNotFound
	}
	err = s.bucket.Delete(id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return utils.ErrNotFound
	}
	return err
}

func (s *GridFSStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
