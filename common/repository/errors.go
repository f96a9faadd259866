package repository

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/models"
)

// NotFoundError means the referenced record does not exist
type NotFoundError struct {
	ItemType models.ItemType
	Ref      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.ItemType, e.Ref)
}

// NewNotFoundError builds a NotFoundError from a record ID
func NewNotFoundError(itemType models.ItemType, id uuid.UUID) *NotFoundError {
	return &NotFoundError{ItemType: itemType, Ref: id.String()}
}

// StaleWriteError means another actor wrote the record after the caller read
// it. Current carries the record as stored so the caller can re-apply; the
// engine never merges silently.
type StaleWriteError struct {
	ItemType        models.ItemType
	ID              uuid.UUID
	ExpectedVersion int64
	CurrentVersion  int64
	Current         models.Item
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("stale write on %s %s: expected version %d, stored version %d",
		e.ItemType, e.ID, e.ExpectedVersion, e.CurrentVersion)
}
