package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/utils"
)

type fakeBlobStore struct {
	mu      sync.Mutex
	kind    string
	blobs   map[string][]byte
	nextRef int
	pingErr error
}

func newFakeBlobStore(kind string) *fakeBlobStore {
	return &fakeBlobStore{kind: kind, blobs: map[string][]byte{}}
}

func (s *fakeBlobStore) Kind() string { return s.kind }

func (s *fakeBlobStore) Put(_ context.Context, name, _ string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRef++
	ref := fmt.Sprintf("%s/%d/%s", s.kind, s.nextRef, name)
	s.blobs[ref] = data
	return ref, int64(len(data)), nil
}

func (s *fakeBlobStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[ref]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[ref]; !ok {
		return utils.ErrNotFound
	}
	delete(s.blobs, ref)
	return nil
}

func (s *fakeBlobStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type fakeFileRepo struct {
	mu        sync.Mutex
	records   map[string]models.FileRecord
	available bool
	insertErr error
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{records: map[string]models.FileRecord{}, available: true}
}

func (r *fakeFileRepo) Available() bool { return r.available }

func (r *fakeFileRepo) Insert(_ context.Context, f *models.FileRecord) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[f.FileID] = *f
	return nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, fileID string) (*models.FileRecord, error) {
	if !r.available {
		return nil, utils.ErrUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[fileID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeFileRepo) List(_ context.Context) ([]models.FileRecord, error) {
	if !r.available {
		return nil, utils.ErrUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FileRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeFileRepo) ListByTender(_ context.Context, tenderID string) ([]models.FileRecord, error) {
	if !r.available {
		return nil, utils.ErrUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FileRecord{}
	for _, rec := range r.records {
		if rec.TenderID == tenderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) Delete(_ context.Context, fileID string) error {
	if !r.available {
		return utils.ErrUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[fileID]; !ok {
		return utils.ErrNotFound
	}
	delete(r.records, fileID)
	return nil
}

func newTestDocumentService() (DocumentService, *fakeFileRepo, *fakeBlobStore, *fakeBlobStore) {
	repo := newFakeFileRepo()
	fs := newFakeBlobStore(models.StorageFilesystem)
	gridfs := newFakeBlobStore(models.StorageGridFS)
	svc := NewDocumentService(repo, fs, gridfs, nil, nil, quietLogger())
	return svc, repo, fs, gridfs
}

func pdfUpload(content string, preferGridFS bool) UploadInput {
	return UploadInput{
		TenderID:     "T1",
		DocumentType: "financial",
		Filename:     "proposal.pdf",
		ContentType:  "application/pdf",
		Content:      strings.NewReader(content),
		PreferGridFS: preferGridFS,
	}
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	svc, repo, fs, gridfs := newTestDocumentService()

	in := pdfUpload("data", false)
	in.Filename = "notes.txt"

	_, err := svc.Upload(context.Background(), in)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
	if fs.count() != 0 || gridfs.count() != 0 {
		t.Error("bytes were persisted for a rejected upload")
	}
	if len(repo.records) != 0 {
		t.Error("metadata was persisted for a rejected upload")
	}
}

func TestUpload_AcceptsUppercaseExtension(t *testing.T) {
	svc, _, _, _ := newTestDocumentService()

	in := pdfUpload("data", false)
	in.Filename = "PROPOSAL.PDF"

	if _, err := svc.Upload(context.Background(), in); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUpload_StoredNameAndProjection(t *testing.T) {
	svc, repo, fs, _ := newTestDocumentService()

	res, err := svc.Upload(context.Background(), pdfUpload("pdf-bytes", false))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if res.StoredFilename != "T1_financial_proposal.pdf" {
		t.Errorf("stored filename = %q, want T1_financial_proposal.pdf", res.StoredFilename)
	}
	if res.StorageType != models.StorageFilesystem {
		t.Errorf("storage type = %q, want filesystem", res.StorageType)
	}
	if res.FileSize != int64(len("pdf-bytes")) {
		t.Errorf("file size = %d, want %d", res.FileSize, len("pdf-bytes"))
	}
	if !res.MetadataSaved {
		t.Error("metadata_saved = false, want true")
	}
	if res.FileID == "" {
		t.Error("file id is empty")
	}

	rec := repo.records[res.FileID]
	if rec.FilePath == nil || rec.GridFSFileID != nil {
		t.Error("filesystem record must set file_path and not gridfs_file_id")
	}
	if fs.count() != 1 {
		t.Errorf("filesystem blobs = %d, want 1", fs.count())
	}
}

func TestUploadRoundTrip_BothBackends(t *testing.T) {
	for _, preferGridFS := range []bool{false, true} {
		name := "filesystem"
		if preferGridFS {
			name = "gridfs"
		}
		t.Run(name, func(t *testing.T) {
			svc, _, _, _ := newTestDocumentService()
			content := "round-trip-" + name

			res, err := svc.Upload(context.Background(), pdfUpload(content, preferGridFS))
			if err != nil {
				t.Fatalf("Upload: %v", err)
			}

			data, contentType, err := svc.Content(context.Background(), res.FileID)
			if err != nil {
				t.Fatalf("Content: %v", err)
			}
			if string(data) != content {
				t.Errorf("content = %q, want %q", data, content)
			}
			if contentType != "application/pdf" {
				t.Errorf("content type = %q, want application/pdf", contentType)
			}
		})
	}
}

func TestUpload_GridFSPreferred(t *testing.T) {
	svc, repo, fs, gridfs := newTestDocumentService()

	res, err := svc.Upload(context.Background(), pdfUpload("data", true))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.StorageType != models.StorageGridFS {
		t.Errorf("storage type = %q, want gridfs", res.StorageType)
	}
	if gridfs.count() != 1 || fs.count() != 0 {
		t.Errorf("blob placement wrong: gridfs=%d fs=%d", gridfs.count(), fs.count())
	}
	rec := repo.records[res.FileID]
	if rec.GridFSFileID == nil || rec.FilePath != nil {
		t.Error("gridfs record must set gridfs_file_id and not file_path")
	}
}

func TestUpload_FallsBackWhenContentStoreDown(t *testing.T) {
	svc, _, fs, gridfs := newTestDocumentService()
	gridfs.pingErr = errors.New("no route to host")

	res, err := svc.Upload(context.Background(), pdfUpload("data", true))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.StorageType != models.StorageFilesystem {
		t.Errorf("storage type = %q, want filesystem fallback", res.StorageType)
	}
	if !strings.Contains(res.StoredFilename, "T1_financial_proposal.pdf") {
		t.Errorf("stored filename = %q, want it to contain T1_financial_proposal.pdf", res.StoredFilename)
	}
	if fs.count() != 1 || gridfs.count() != 0 {
		t.Errorf("blob placement wrong: fs=%d gridfs=%d", fs.count(), gridfs.count())
	}
}

func TestUpload_DegradesWhenMetadataStoreDown(t *testing.T) {
	svc, repo, fs, _ := newTestDocumentService()
	repo.insertErr = utils.ErrUnavailable

	res, err := svc.Upload(context.Background(), pdfUpload("data", false))
	if err != nil {
		t.Fatalf("Upload should succeed in degraded mode, got %v", err)
	}
	if res.MetadataSaved {
		t.Error("metadata_saved = true, want false")
	}
	if fs.count() != 1 {
		t.Error("content must still be persisted in degraded mode")
	}
}

func TestDelete_Twice(t *testing.T) {
	svc, _, fs, _ := newTestDocumentService()

	res, err := svc.Upload(context.Background(), pdfUpload("data", false))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(context.Background(), res.FileID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if fs.count() != 0 {
		t.Error("bytes remain after delete")
	}

	err = svc.Delete(context.Background(), res.FileID)
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("second delete err = %v, want NOT_FOUND", err)
	}
}

func TestReads_DistinguishUnavailableFromNotFound(t *testing.T) {
	svc, repo, _, _ := newTestDocumentService()

	if _, err := svc.Get(context.Background(), "missing"); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}

	repo.available = false
	if _, err := svc.Get(context.Background(), "missing"); !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("err = %v, want UNAVAILABLE", err)
	}
	if _, err := svc.List(context.Background()); !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("List err = %v, want UNAVAILABLE", err)
	}
}

func TestListByTender(t *testing.T) {
	svc, _, _, _ := newTestDocumentService()

	if _, err := svc.Upload(context.Background(), pdfUpload("a", false)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	other := pdfUpload("b", false)
	other.TenderID = "T2"
	if _, err := svc.Upload(context.Background(), other); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	files, err := svc.ListByTender(context.Background(), "T1")
	if err != nil {
		t.Fatalf("ListByTender: %v", err)
	}
	if len(files) != 1 || files[0].TenderID != "T1" {
		t.Fatalf("ListByTender returned %d files, want exactly the T1 file", len(files))
	}
}
