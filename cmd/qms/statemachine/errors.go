package statemachine

import (
	"fmt"

	"github.com/forgeline/qms/common/models"
)

// Guard failure reason codes
const (
	ReasonQuorumNotMet       = "QuorumNotMet"
	ReasonStepIncomplete     = "StepIncomplete"
	ReasonDispositionMissing = "DispositionMissing"
	ReasonApprovalsMissing   = "ApprovalsMissing"
	ReasonResponseMissing    = "ResponseMissing"
	ReasonReviewPending      = "ReviewPending"
)

// InvalidTransitionError means the requested edge is not in the entity's
// transition table
type InvalidTransitionError struct {
	ItemType models.ItemType
	From     models.Status
	To       models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s has no transition %s -> %s", e.ItemType, e.From, e.To)
}

// TerminalStateError means the record is already in a terminal status and
// admits no further transitions
type TerminalStateError struct {
	ItemType models.ItemType
	Number   string
	Status   models.Status
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s %s is terminal in status %s", e.ItemType, e.Number, e.Status)
}

// GuardError means the edge exists but a guard predicate held it back.
// Reason is a machine-readable code the caller can act on.
type GuardError struct {
	ItemType models.ItemType
	From     models.Status
	To       models.Status
	Reason   string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s transition %s -> %s blocked: %s", e.ItemType, e.From, e.To, e.Reason)
}
