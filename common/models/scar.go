package models

import "time"

// SCAR statuses
const (
	SCARStatusIssued           Status = "issued"
	SCARStatusSupplierResponse Status = "supplier_response"
	SCARStatusReview           Status = "review"
)

// ReviewStatus is the buyer-side verdict on a supplier's response
type ReviewStatus string

const (
	ReviewApproved    ReviewStatus = "approved"
	ReviewRejected    ReviewStatus = "rejected"
	ReviewPendingInfo ReviewStatus = "pending_info"
)

// SupplierAction statuses
const (
	SupplierActionPending    = "pending"
	SupplierActionInProgress = "in_progress"
	SupplierActionCompleted  = "completed"
)

// SCARRootCause is one root cause the supplier identified
type SCARRootCause struct {
	Category string `json:"category"`
	Analysis string `json:"analysis"`
	Verified bool   `json:"verified"`
}

// SupplierAction is a containment, corrective or preventive action proposed
// by the supplier. EffectivenessRating is 1-5, zero until rated.
type SupplierAction struct {
	Description         string `json:"description"`
	Status              string `json:"status"`
	Verified            bool   `json:"verified"`
	EffectivenessRating int    `json:"effectivenessRating,omitempty"`
}

// SupplierResponse is the supplier's formal reply to the request
type SupplierResponse struct {
	RespondedBy string    `json:"respondedBy"`
	RespondedAt time.Time `json:"respondedAt"`
	Summary     string    `json:"summary"`
}

// SCAR is a Supplier Corrective Action Request: a formal defect notice
// issued to a supplier.
type SCAR struct {
	RecordHeader

	SupplierName string `json:"supplierName"`
	SupplierCode string `json:"supplierCode,omitempty"`

	// Non-owning back-reference maintained by the linkage service
	SourceNCRNumber string `json:"sourceNcrNumber,omitempty"`

	ContainmentActions []SupplierAction `json:"containmentActions,omitempty"`
	RootCauses         []SCARRootCause  `json:"rootCauses,omitempty"`
	CorrectiveActions  []SupplierAction `json:"correctiveActions,omitempty"`
	PreventiveActions  []SupplierAction `json:"preventiveActions,omitempty"`

	SupplierResponse *SupplierResponse `json:"supplierResponse,omitempty"`
	ReviewStatus     ReviewStatus      `json:"reviewStatus,omitempty"`

	ClosedBy   string     `json:"closedBy,omitempty"`
	ClosedDate *time.Time `json:"closedDate,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

func (s *SCAR) GetItemType() ItemType { return ItemTypeSCAR }
