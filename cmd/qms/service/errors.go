package service

import (
	"fmt"

	"github.com/forgeline/qms/common/models"
)

// DanglingLinkError means a linkage operation would leave a reference set on
// one side and cleared on the other. The operation is aborted atomically; a
// reader must never observe the half-linked state.
type DanglingLinkError struct {
	ParentNumber string
	ChildNumber  string
	Detail       string
}

func (e *DanglingLinkError) Error() string {
	return fmt.Sprintf("link between %s and %s is inconsistent: %s", e.ParentNumber, e.ChildNumber, e.Detail)
}

// LinkConflictError means the record already carries a different link of the
// same kind. Existing links must be removed before a new one is set.
type LinkConflictError struct {
	Number   string
	Existing string
}

func (e *LinkConflictError) Error() string {
	return fmt.Sprintf("%s is already linked to %s", e.Number, e.Existing)
}

// UnsupportedLinkError means no linkage is defined between the two record
// types
type UnsupportedLinkError struct {
	ParentType models.ItemType
	ChildType  models.ItemType
}

func (e *UnsupportedLinkError) Error() string {
	return fmt.Sprintf("no link defined between %s and %s", e.ParentType, e.ChildType)
}
