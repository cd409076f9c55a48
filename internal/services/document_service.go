package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chainfly/tenderapi/internal/cache"
	"github.com/chainfly/tenderapi/internal/models"
	mongorepo "github.com/chainfly/tenderapi/internal/repositories/mongo"
	"github.com/chainfly/tenderapi/internal/scheduler"
	"github.com/chainfly/tenderapi/internal/storage"
	"github.com/chainfly/tenderapi/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const documentsCacheKey = "documents:list"

type UploadInput struct {
	TenderID     string
	DocumentType string
	Filename     string
	ContentType  string
	Content      io.Reader
	// PreferGridFS selects the content store when it is reachable;
	// otherwise the upload falls back to the filesystem.
	PreferGridFS bool
}

type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*models.UploadResult, error)
	Get(ctx context.Context, fileID string) (*models.FileRecord, error)
	// Content returns the stored bytes and their content type.
	Content(ctx context.Context, fileID string) ([]byte, string, error)
	Delete(ctx context.Context, fileID string) error
	List(ctx context.Context) ([]models.FileRecord, error)
	ListByTender(ctx context.Context, tenderID string) ([]models.FileRecord, error)
}

type documentService struct {
	files      mongorepo.FileRepository
	filesystem storage.BlobStore
	gridfs     storage.BlobStore // nil when mongo is down
	clock      scheduler.Clock
	cache      cache.Cache
	log        *logrus.Logger
}

func NewDocumentService(files mongorepo.FileRepository, filesystem storage.BlobStore, gridfs storage.BlobStore, clock scheduler.Clock, c cache.Cache, log *logrus.Logger) DocumentService {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &documentService{
		files:      files,
		filesystem: filesystem,
		gridfs:     gridfs,
		clock:      clock,
		cache:      c,
		log:        log,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*models.UploadResult, error) {
	const op = "DocumentService.Upload"

	if in.TenderID == "" || in.DocumentType == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tender_id and document_type are required", nil)
	}
	if strings.ToLower(filepath.Ext(in.Filename)) != ".pdf" {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("only PDF files are allowed, received: %s", in.Filename), nil)
	}

	fileID := uuid.NewString()
	storedName := fmt.Sprintf("%s_%s_%s", in.TenderID, in.DocumentType, in.Filename)

	backend := s.pickBackend(ctx, in.PreferGridFS)
	ref, size, err := backend.Put(ctx, storedName, in.ContentType, in.Content)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store file content", err)
	}

	record := &models.FileRecord{
		FileID:           fileID,
		TenderID:         in.TenderID,
		DocumentType:     in.DocumentType,
		OriginalFilename: in.Filename,
		StoredFilename:   storedName,
		ContentType:      in.ContentType,
		FileSize:         size,
		UploadedAt:       s.clock.Now().UTC(),
		StorageType:      backend.Kind(),
		Status:           "uploaded",
	}
	switch backend.Kind() {
	case models.StorageGridFS:
		record.GridFSFileID = &ref
	default:
		record.FilePath = &ref
	}

	// Content is durable at this point. A metadata write failure degrades
	// the upload to unlistable instead of failing it; the flag makes the
	// degradation visible to the caller.
	metadataSaved := false
	if err := s.files.Insert(ctx, record); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"file_id":      fileID,
			"storage_type": record.StorageType,
			"ref":          ref,
		}).Warn("file metadata not persisted; content stored but unlistable")
	} else {
		metadataSaved = true
	}

	_ = s.cache.Del(ctx, documentsCacheKey)

	return &models.UploadResult{
		FileID:         fileID,
		TenderID:       in.TenderID,
		DocumentType:   in.DocumentType,
		Filename:       in.Filename,
		StoredFilename: storedName,
		FileSize:       size,
		UploadedAt:     record.UploadedAt,
		StorageType:    record.StorageType,
		Status:         "success",
		MetadataSaved:  metadataSaved,
	}, nil
}

// pickBackend prefers GridFS only when requested and reachable; every
// other case lands on the filesystem.
func (s *documentService) pickBackend(ctx context.Context, preferGridFS bool) storage.BlobStore {
	if preferGridFS && s.gridfs != nil {
		if err := s.gridfs.Ping(ctx); err == nil {
			return s.gridfs
		}
		s.log.Warn("content store unreachable, falling back to filesystem")
	}
	return s.filesystem
}

func (s *documentService) Get(ctx context.Context, fileID string) (*models.FileRecord, error) {
	const op = "DocumentService.Get"

	record, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "file not found", err)
	}
	if errors.Is(err, utils.ErrUnavailable) {
		return nil, utils.E(utils.CodeUnavailable, op, "metadata store temporarily unavailable", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load file metadata", err)
	}
	return record, nil
}

func (s *documentService) Content(ctx context.Context, fileID string) ([]byte, string, error) {
	const op = "DocumentService.Content"

	record, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	backend := s.backendFor(record.StorageType)
	if backend == nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "content store temporarily unavailable", nil)
	}

	rc, err := backend.Open(ctx, record.StorageRef())
	if errors.Is(err, utils.ErrNotFound) {
		return nil, "", utils.E(utils.CodeNotFound, op, "file content missing", err)
	}
	if err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "failed to open file content", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to read file content", err)
	}
	return data, record.ContentType, nil
}

func (s *documentService) Delete(ctx context.Context, fileID string) error {
	const op = "DocumentService.Delete"

	record, err := s.Get(ctx, fileID)
	if err != nil {
		return err
	}

	// Two non-transactional deletes. A blob-delete failure is logged with
	// the orphan location and the metadata delete still proceeds, so a
	// retry reports not-found.
	if backend := s.backendFor(record.StorageType); backend != nil {
		if err := backend.Delete(ctx, record.StorageRef()); err != nil && !errors.Is(err, utils.ErrNotFound) {
			s.log.WithError(err).WithFields(logrus.Fields{
				"file_id":      fileID,
				"storage_type": record.StorageType,
				"ref":          record.StorageRef(),
			}).Error("orphaned file content: blob delete failed")
		}
	}

	if err := s.files.Delete(ctx, fileID); err != nil && !errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeInternal, op, "failed to delete file metadata", err)
	}

	_ = s.cache.Del(ctx, documentsCacheKey)
	return nil
}

func (s *documentService) List(ctx context.Context) ([]models.FileRecord, error) {
	const op = "DocumentService.List"

	var cached []models.FileRecord
	if hit, _ := s.cache.GetJSON(ctx, documentsCacheKey, &cached); hit {
		return cached, nil
	}

	files, err := s.files.List(ctx)
	if errors.Is(err, utils.ErrUnavailable) {
		return nil, utils.E(utils.CodeUnavailable, op, "metadata store temporarily unavailable", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list files", err)
	}

	_ = s.cache.SetJSON(ctx, documentsCacheKey, files, listCacheTTL)
	return files, nil
}

func (s *documentService) ListByTender(ctx context.Context, tenderID string) ([]models.FileRecord, error) {
	const op = "DocumentService.ListByTender"

	if tenderID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tender_id is required", nil)
	}

	files, err := s.files.ListByTender(ctx, tenderID)
	if errors.Is(err, utils.ErrUnavailable) {
		return nil, utils.E(utils.CodeUnavailable, op, "metadata store temporarily unavailable", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list files", err)
	}
	return files, nil
}

func (s *documentService) backendFor(kind string) storage.BlobStore {
	if kind == models.StorageGridFS {
		return s.gridfs
	}
	return s.filesystem
}
