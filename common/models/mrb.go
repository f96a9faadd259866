package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MRB statuses
const (
	MRBStatusPendingReview      Status = "pending_review"
	MRBStatusInReview           Status = "in_review"
	MRBStatusPendingDisposition Status = "pending_disposition"
	MRBStatusApproved           Status = "approved"
	MRBStatusRejected           Status = "rejected"
)

// MRBVote is a board member's cast vote
type MRBVote string

const (
	VoteApprove MRBVote = "approve"
	VoteReject  MRBVote = "reject"
	VoteAbstain MRBVote = "abstain"
)

// DispositionDecision is the enumerated set of handling decisions for
// nonconforming material
type DispositionDecision string

const (
	DecisionUseAsIs          DispositionDecision = "use_as_is"
	DecisionRework           DispositionDecision = "rework"
	DecisionRepair           DispositionDecision = "repair"
	DecisionReturnToSupplier DispositionDecision = "return_to_supplier"
	DecisionScrap            DispositionDecision = "scrap"
	DecisionDeviate          DispositionDecision = "deviate"
)

// MRBMember is a board member. Vote is empty until cast; a member votes at
// most once.
type MRBMember struct {
	MemberID string     `json:"memberId"`
	Name     string     `json:"name,omitempty"`
	IsChair  bool       `json:"isChair,omitempty"`
	Vote     MRBVote    `json:"vote,omitempty"`
	VotedAt  *time.Time `json:"votedAt,omitempty"`
}

// MRBDisposition is the board's decision, writable only once quorum is met
// and the vote outcome is decided.
type MRBDisposition struct {
	Decision      DispositionDecision `json:"decision"`
	Justification string              `json:"justification"`
	ApprovedBy    []string            `json:"approvedBy,omitempty"`
}

// ActionItem statuses
const (
	ActionItemOpen       = "open"
	ActionItemInProgress = "in_progress"
	ActionItemCompleted  = "completed"
)

// ActionItem is a follow-up task owned by an MRB record
type ActionItem struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
}

// MRB is a Material Review Board record governing disposition of
// nonconforming material via quorum vote.
type MRB struct {
	RecordHeader

	Type string `json:"type"`
	Area string `json:"area,omitempty"`

	Members        []MRBMember `json:"members"`
	QuorumRequired int         `json:"quorumRequired"`

	Disposition *MRBDisposition `json:"disposition,omitempty"`

	ActionItems []ActionItem `json:"actionItems,omitempty"`

	// Non-owning back-references maintained by the linkage service.
	// SourceNCRNumber is the primary link; LinkedNCRNumbers keeps the full
	// traceability list when several NCRs route to the same board.
	SourceNCRNumber  string   `json:"sourceNCRNumber,omitempty"`
	LinkedNCRNumbers []string `json:"linkedNcrNumbers,omitempty"`

	CostImpact          *decimal.Decimal `json:"costImpact,omitempty"`
	ScheduleImpactDays  int              `json:"scheduleImpactDays,omitempty"`

	ClosedBy   string     `json:"closedBy,omitempty"`
	ClosedDate *time.Time `json:"closedDate,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

func (m *MRB) GetItemType() ItemType { return ItemTypeMRB }

// Member returns the board member with the given ID, or nil
func (m *MRB) Member(memberID string) *MRBMember {
	for i := range m.Members {
		if m.Members[i].MemberID == memberID {
			return &m.Members[i]
		}
	}
	return nil
}

// VotesCast counts members that have voted (abstentions included)
func (m *MRB) VotesCast() int {
	count := 0
	for i := range m.Members {
		if m.Members[i].Vote != "" {
			count++
		}
	}
	return count
}
