package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemType identifies which quality record family an item belongs to
type ItemType string

const (
	ItemTypeNCR  ItemType = "ncr"
	ItemTypeMRB  ItemType = "mrb"
	ItemTypeCAPA ItemType = "capa"
	ItemTypeSCAR ItemType = "scar"
)

// Status is a workflow status value. The valid set depends on the item type;
// the state machine owns the transition tables between them.
type Status string

// Item is the common surface every quality record exposes to the engine.
// Status and disposition fields are only ever written through the state
// machine service, never by direct assignment.
type Item interface {
	GetID() uuid.UUID
	GetItemType() ItemType
	GetNumber() string
	GetStatus() Status
	SetStatus(Status)
	GetVersion() int64
	SetVersion(int64)
	GetUpdatedAt() time.Time
	Touch(now time.Time)
}

// RecordHeader carries the fields shared by all quality records
type RecordHeader struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	Status    Status    `json:"status"`
	Version   int64     `json:"version"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *RecordHeader) GetID() uuid.UUID        { return h.ID }
func (h *RecordHeader) GetNumber() string       { return h.Number }
func (h *RecordHeader) GetStatus() Status       { return h.Status }
func (h *RecordHeader) SetStatus(s Status)      { h.Status = s }
func (h *RecordHeader) GetVersion() int64       { return h.Version }
func (h *RecordHeader) SetVersion(v int64)      { h.Version = v }
func (h *RecordHeader) GetUpdatedAt() time.Time { return h.UpdatedAt }
func (h *RecordHeader) Touch(now time.Time)     { h.UpdatedAt = now }

// NewItem returns an empty record of the given type for polymorphic decoding
func NewItem(itemType ItemType) (Item, error) {
	switch itemType {
	case ItemTypeNCR:
		return &NCR{}, nil
	case ItemTypeMRB:
		return &MRB{}, nil
	case ItemTypeCAPA:
		return &CAPA{}, nil
	case ItemTypeSCAR:
		return &SCAR{}, nil
	default:
		return nil, fmt.Errorf("unknown item type: %s", itemType)
	}
}

// InitialStatus returns the status a freshly created record starts in
func InitialStatus(itemType ItemType) Status {
	switch itemType {
	case ItemTypeMRB:
		return MRBStatusPendingReview
	default:
		return StatusDraft
	}
}

// IsTerminal reports whether a status admits no further transitions
func IsTerminal(itemType ItemType, status Status) bool {
	if status == StatusClosed {
		return true
	}
	return itemType == ItemTypeCAPA && status == CAPAStatusCancelled
}

// Clone returns a deep copy of an item via its JSON form. The JSON layout is
// the persisted record layout, so a clone is also a round-trip check.
func Clone(item Item) (Item, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", item.GetItemType(), err)
	}

	copy, err := NewItem(item.GetItemType())
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, copy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", item.GetItemType(), err)
	}

	return copy, nil
}

// ToMap renders an item as a generic JSON map (guard evaluation, diffing)
func ToMap(item Item) (map[string]interface{}, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", item.GetItemType(), err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", item.GetItemType(), err)
	}

	return m, nil
}

// Statuses shared across record types
const (
	StatusDraft  Status = "draft"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)
