package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentFile represents an uploaded or scanned source file.
type DocumentFile struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"owner_id"`
	SourcePath  string    `json:"source_path"`
	StoragePath string    `json:"storage_path"`
	ContentHash []byte    `json:"content_hash"`
	Filename    string    `json:"filename"`
	FileExt     string    `json:"file_ext"`
	FileSize    int       `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
