package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/models"
	"github.com/forgeline/qms/common/validation"
)

// BlobStore is the external collaborator holding attachment bytes. The
// engine stores metadata only and never inspects file contents.
type BlobStore interface {
	Upload(ctx context.Context, fileName string, contents io.Reader) (string, error)
	Download(ctx context.Context, storageURL string) (io.ReadCloser, error)
}

// AttachmentService manages attachment metadata on quality records
type AttachmentService struct {
	records *RecordService
	blobs   BlobStore
}

// NewAttachmentService creates the attachment service. blobs may be nil when
// callers upload out of band and only register metadata.
func NewAttachmentService(records *RecordService, blobs BlobStore) *AttachmentService {
	return &AttachmentService{records: records, blobs: blobs}
}

// Add registers attachment metadata on a record. The storage URL must pass
// the scheme and traversal checks before anything is written.
func (s *AttachmentService) Add(ctx context.Context, itemType models.ItemType, id uuid.UUID, actor string, attachment models.Attachment, expectedVersion int64) (models.Item, error) {
	if err := validation.ValidateStorageURL(attachment.StorageURL); err != nil {
		return nil, &validation.ValidationError{
			ItemType: itemType,
			Fields:   []validation.FieldError{{Field: "storageUrl", Constraint: err.Error()}},
		}
	}

	attachment.ID = uuid.New()
	attachment.UploadedBy = actor
	attachment.UploadedAt = time.Now()

	return s.records.Mutate(ctx, itemType, id, expectedVersion, models.ActionAddAttachment, actor, attachment.FileName, func(item models.Item) error {
		list := attachmentsOf(item)
		*list = append(*list, attachment)
		return nil
	})
}

// Upload sends file bytes to the blob collaborator and registers the
// resulting URL as attachment metadata
func (s *AttachmentService) Upload(ctx context.Context, itemType models.ItemType, id uuid.UUID, actor, fileName, mimeType string, size int64, contents io.Reader, expectedVersion int64) (models.Item, error) {
	storageURL, err := s.blobs.Upload(ctx, fileName, contents)
	if err != nil {
		return nil, err
	}

	return s.Add(ctx, itemType, id, actor, models.Attachment{
		FileName:   fileName,
		Size:       size,
		MimeType:   mimeType,
		StorageURL: storageURL,
	}, expectedVersion)
}

// List returns a record's attachment metadata
func (s *AttachmentService) List(ctx context.Context, itemType models.ItemType, id uuid.UUID) ([]models.Attachment, error) {
	item, err := s.records.Get(ctx, itemType, id)
	if err != nil {
		return nil, err
	}
	return *attachmentsOf(item), nil
}

func attachmentsOf(item models.Item) *[]models.Attachment {
	switch record := item.(type) {
	case *models.NCR:
		return &record.Attachments
	case *models.MRB:
		return &record.Attachments
	case *models.CAPA:
		return &record.Attachments
	case *models.SCAR:
		return &record.Attachments
	}
	return nil
}
