package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is file metadata owned by a quality record. The bytes live in
// the external blob store; only the metadata is persisted here.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"fileName"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	StorageURL string    `json:"storageUrl"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}
