package models

import "time"

const (
	StorageFilesystem = "filesystem"
	StorageGridFS     = "gridfs"
)

// FileRecord is the metadata document in the "files" collection and the
// single source of truth for later retrieval/deletion. Exactly one of
// FilePath / GridFSFileID is set, selected by StorageType.
type FileRecord struct {
	FileID           string    `bson:"_id" json:"file_id"` // uuid v4
	TenderID         string    `bson:"tender_id" json:"tender_id"`
	DocumentType     string    `bson:"document_type" json:"document_type"`
	OriginalFilename string    `bson:"original_filename" json:"original_filename"`
	StoredFilename   string    `bson:"stored_filename" json:"stored_filename"` // {tender_id}_{document_type}_{original_filename}
	ContentType      string    `bson:"content_type" json:"content_type"`
	FileSize         int64     `bson:"file_size" json:"file_size"`
	UploadedAt       time.Time `bson:"uploaded_at" json:"uploaded_at"`

	StorageType  string  `bson:"storage_type" json:"storage_type"` // filesystem|gridfs
	FilePath     *string `bson:"file_path,omitempty" json:"file_path,omitempty"`
	GridFSFileID *string `bson:"gridfs_file_id,omitempty" json:"gridfs_file_id,omitempty"`

	Status string `bson:"status" json:"status"` // uploaded
}

// StorageRef returns the backend-specific location of the bytes.
func (f *FileRecord) StorageRef() string {
	if f.StorageType == StorageGridFS && f.GridFSFileID != nil {
		return *f.GridFSFileID
	}
	if f.FilePath != nil {
		return *f.FilePath
	}
	return ""
}

// UploadResult is the public projection returned by a document upload.
type UploadResult struct {
	FileID         string    `json:"file_id"`
	TenderID       string    `json:"tender_id"`
	DocumentType   string    `json:"document_type"`
	Filename       string    `json:"filename"`
	StoredFilename string    `json:"stored_filename"`
	FileSize       int64     `json:"file_size"`
	UploadedAt     time.Time `json:"uploaded_at"`
	StorageType    string    `json:"storage_type"`
	Status         string    `json:"status"`
	MetadataSaved  bool      `json:"metadata_saved"`
}
