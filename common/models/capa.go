package models

import "time"

// CAPA statuses. closed and cancelled are terminal.
const (
	CAPAStatusInProgress          Status = "in_progress"
	CAPAStatusPendingReview       Status = "pending_review"
	CAPAStatusUnderInvestigation  Status = "under_investigation"
	CAPAStatusImplementing        Status = "implementing"
	CAPAStatusPendingVerification Status = "pending_verification"
	CAPAStatusCompleted           Status = "completed"
	CAPAStatusVerified            Status = "verified"
	CAPAStatusCancelled           Status = "cancelled"
)

// CAPAType distinguishes corrective from preventive work
type CAPAType string

const (
	CAPACorrective  CAPAType = "corrective"
	CAPAPreventive  CAPAType = "preventive"
	CAPAImprovement CAPAType = "improvement"
)

// StepStatus is the per-step state machine: pending -> in_progress ->
// completed -> verified, monotonic, no skipping.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepVerified   StepStatus = "verified"
)

// EightDStep is one of the eight disciplines (D1..D8). TeamMembers is only
// populated on D1.
type EightDStep struct {
	Description   string     `json:"description"`
	Owner         string     `json:"owner,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Status        StepStatus `json:"status"`
	Comments      string     `json:"comments,omitempty"`
	TeamMembers   []string   `json:"teamMembers,omitempty"`
}

// StepKeys lists the 8D step keys in discipline order
var StepKeys = []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8"}

// CAPA is a Corrective/Preventive Action structured per the 8D methodology
type CAPA struct {
	RecordHeader

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        CAPAType `json:"type"`

	// Non-owning back-reference maintained by the linkage service
	SourceNCRID string `json:"sourceNcrId,omitempty"`

	D1 *EightDStep `json:"d1,omitempty"`
	D2 *EightDStep `json:"d2,omitempty"`
	D3 *EightDStep `json:"d3,omitempty"`
	D4 *EightDStep `json:"d4,omitempty"`
	D5 *EightDStep `json:"d5,omitempty"`
	D6 *EightDStep `json:"d6,omitempty"`
	D7 *EightDStep `json:"d7,omitempty"`
	D8 *EightDStep `json:"d8,omitempty"`

	ClosedBy   string     `json:"closedBy,omitempty"`
	ClosedDate *time.Time `json:"closedDate,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

func (c *CAPA) GetItemType() ItemType { return ItemTypeCAPA }

// Step returns the step for a d1..d8 key, or nil for an unknown key
func (c *CAPA) Step(key string) *EightDStep {
	switch key {
	case "d1":
		return c.D1
	case "d2":
		return c.D2
	case "d3":
		return c.D3
	case "d4":
		return c.D4
	case "d5":
		return c.D5
	case "d6":
		return c.D6
	case "d7":
		return c.D7
	case "d8":
		return c.D8
	}
	return nil
}

// SetStep stores a step under a d1..d8 key. Returns false for unknown keys.
func (c *CAPA) SetStep(key string, step *EightDStep) bool {
	switch key {
	case "d1":
		c.D1 = step
	case "d2":
		c.D2 = step
	case "d3":
		c.D3 = step
	case "d4":
		c.D4 = step
	case "d5":
		c.D5 = step
	case "d6":
		c.D6 = step
	case "d7":
		c.D7 = step
	case "d8":
		c.D8 = step
	default:
		return false
	}
	return true
}

// PendingSteps returns the keys of defined steps still in pending status
func (c *CAPA) PendingSteps() []string {
	var pending []string
	for _, key := range StepKeys {
		if step := c.Step(key); step != nil && step.Status == StepPending {
			pending = append(pending, key)
		}
	}
	return pending
}
