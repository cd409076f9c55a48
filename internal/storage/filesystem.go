package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/utils"
)

// FilesystemStore writes blobs into a local uploads directory. The ref it
// returns is the absolute file path.
type FilesystemStore struct {
	dir string
}

func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads dir %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &FilesystemStore{dir: abs}, nil
}

func (s *FilesystemStore) Kind() string { return models.StorageFilesystem }

func (s *FilesystemStore) Dir() string { return s.dir }

func (s *FilesystemStore) Put(_ context.Context, name string, _ string, r io.Reader) (string, int64, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return "", 0, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", 0, err
	}
	return path, size, nil
}

func (s *FilesystemStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(ref)
	if os.IsNotExist(err) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FilesystemStore) Delete(_ context.Context, ref string) error {
	err := os.Remove(ref)
	if os.IsNotExist(err) {
		return utils.ErrNotFound
	}
	return err
}

func (s *FilesystemStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
