package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionTransition       = "transition"
	ActionCastVote         = "cast_vote"
	ActionSetDisposition   = "set_disposition"
	ActionAddApproval      = "add_approval"
	ActionAdvanceStep      = "advance_step"
	ActionSupplierResponse = "supplier_response"
	ActionReview           = "review"
	ActionLink             = "link"
	ActionUnlink           = "unlink"
	ActionAddAttachment    = "add_attachment"
)

// FieldChange is one changed field in an audit entry. Status-like fields are
// rendered as from/to pairs; array fields carry element counts instead of
// full contents to bound entry size.
type FieldChange struct {
	Field string      `json:"field"`
	From  interface{} `json:"from,omitempty"`
	To    interface{} `json:"to,omitempty"`
}

// AuditDetails is the payload of an audit entry
type AuditDetails struct {
	Before   map[string]interface{} `json:"before,omitempty"`
	After    map[string]interface{} `json:"after,omitempty"`
	Fields   []FieldChange          `json:"fields,omitempty"`
	Comments string                 `json:"comments,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
}

// AuditEntry is one immutable history record. The trail is append-only:
// entries are never updated or deleted, and Seq increases monotonically
// per item.
type AuditEntry struct {
	ID        uuid.UUID    `json:"id"`
	Seq       int64        `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	ActorID   string       `json:"actorId"`
	Action    string       `json:"action"`
	ItemID    uuid.UUID    `json:"itemId"`
	ItemType  ItemType     `json:"itemType"`
	Details   AuditDetails `json:"details"`
}

// AuditFilter narrows an audit trail query
type AuditFilter struct {
	Action  string
	ActorID string
	Limit   int
}
