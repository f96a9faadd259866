package models

import "time"

// NCR statuses (strictly linear workflow)
const (
	NCRStatusUnderReview        Status = "under_review"
	NCRStatusPendingDisposition Status = "pending_disposition"
)

// NonconformanceType classifies what kind of defect a record covers
type NonconformanceType string

const (
	NonconformanceMaterial      NonconformanceType = "material"
	NonconformanceDocumentation NonconformanceType = "documentation"
	NonconformanceProduct       NonconformanceType = "product"
	NonconformanceProcess       NonconformanceType = "process"
	NonconformanceEquipment     NonconformanceType = "equipment"
)

// Severity grades how serious a nonconformance is
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Signoff is one approver entry on an NCR disposition. The list is ordered
// and append-only.
type Signoff struct {
	ActorID  string    `json:"actorId"`
	SignedAt time.Time `json:"signedAt"`
}

// NCRDisposition is the formal decision on a nonconformance. It may only be
// set once the NCR has reached pending_disposition.
type NCRDisposition struct {
	Decision      DispositionDecision `json:"decision"`
	Justification string              `json:"justification"`
	ApprovedBy    []Signoff           `json:"approvedBy"`
	ApprovalDate  *time.Time          `json:"approvalDate,omitempty"`
}

// NCR is a Nonconformance Report: a detected defect in material, process,
// product, documentation or equipment.
type NCR struct {
	RecordHeader

	Title       string             `json:"title"`
	Description string             `json:"description"`
	Type        NonconformanceType `json:"type"`
	Severity    Severity           `json:"severity"`

	// Classification
	Area             string `json:"area,omitempty"`
	DefectCode       string `json:"defectCode,omitempty"`
	LotNumber        string `json:"lotNumber,omitempty"`
	SerialNumber     string `json:"serialNumber,omitempty"`
	PartNumber       string `json:"partNumber,omitempty"`
	QuantityAffected int    `json:"quantityAffected,omitempty"`

	// Personnel
	ReportedBy     string `json:"reportedBy"`
	AssignedTo     string `json:"assignedTo,omitempty"`
	InvestigatedBy string `json:"investigatedBy,omitempty"`

	// Root cause
	RootCauseCategory string `json:"rootCauseCategory,omitempty"`
	RootCauseAnalysis string `json:"rootCauseAnalysis,omitempty"`

	Disposition *NCRDisposition `json:"disposition,omitempty"`

	// Non-owning back-references maintained by the linkage service
	CAPANumber string `json:"capaNumber,omitempty"`
	MRBNumber  string `json:"mrbNumber,omitempty"`

	ClosedBy   string     `json:"closedBy,omitempty"`
	ClosedDate *time.Time `json:"closedDate,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

func (n *NCR) GetItemType() ItemType { return ItemTypeNCR }

// ApprovalCount returns the number of disposition sign-offs recorded
func (n *NCR) ApprovalCount() int {
	if n.Disposition == nil {
		return 0
	}
	return len(n.Disposition.ApprovedBy)
}
