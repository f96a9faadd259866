package approval

import (
	"fmt"

	"github.com/forgeline/qms/common/models"
)

// DuplicateVoteError means a board member tried to vote twice
type DuplicateVoteError struct {
	MRBNumber string
	MemberID  string
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("member %s has already voted on %s", e.MemberID, e.MRBNumber)
}

// NotAMemberError means the voter is not on the board
type NotAMemberError struct {
	MRBNumber string
	MemberID  string
}

func (e *NotAMemberError) Error() string {
	return fmt.Sprintf("%s is not a member of %s", e.MemberID, e.MRBNumber)
}

// VoteClosedError means the board is not in a status that accepts votes
type VoteClosedError struct {
	MRBNumber string
	Status    models.Status
}

func (e *VoteClosedError) Error() string {
	return fmt.Sprintf("%s does not accept votes in status %s", e.MRBNumber, e.Status)
}

// QuorumPendingError means the MRB disposition was written before the vote
// reached a binding outcome
type QuorumPendingError struct {
	MRBNumber      string
	VotesCast      int
	QuorumRequired int
	Outcome        Outcome
}

func (e *QuorumPendingError) Error() string {
	return fmt.Sprintf("%s disposition not writable: %d of %d votes cast, outcome %s",
		e.MRBNumber, e.VotesCast, e.QuorumRequired, e.Outcome)
}

// DispositionStageError means a disposition mutation arrived before the
// record reached pending_disposition
type DispositionStageError struct {
	Number string
	Status models.Status
}

func (e *DispositionStageError) Error() string {
	return fmt.Sprintf("%s disposition not writable in status %s", e.Number, e.Status)
}

// DuplicateSignoffError means an approver tried to sign a disposition twice
type DuplicateSignoffError struct {
	NCRNumber string
	ActorID   string
}

func (e *DuplicateSignoffError) Error() string {
	return fmt.Sprintf("%s has already signed off on %s", e.ActorID, e.NCRNumber)
}

// UnknownStepError means the 8D step key is not d1..d8 or the step is not
// defined on the record
type UnknownStepError struct {
	CAPANumber string
	Key        string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("%s has no step %q", e.CAPANumber, e.Key)
}

// StepOrderError means a step status update skipped a stage or moved
// backwards. Step statuses only ever advance one stage at a time.
type StepOrderError struct {
	CAPANumber string
	Key        string
	From       models.StepStatus
	To         models.StepStatus
}

func (e *StepOrderError) Error() string {
	return fmt.Sprintf("%s step %s cannot move %s -> %s", e.CAPANumber, e.Key, e.From, e.To)
}

// ResponseStageError means a supplier response arrived while the SCAR was
// not waiting for one
type ResponseStageError struct {
	SCARNumber string
	Status     models.Status
}

func (e *ResponseStageError) Error() string {
	return fmt.Sprintf("%s does not accept a supplier response in status %s", e.SCARNumber, e.Status)
}

// ReviewStageError means a review verdict was recorded outside the review
// stage
type ReviewStageError struct {
	SCARNumber string
	Status     models.Status
}

func (e *ReviewStageError) Error() string {
	return fmt.Sprintf("%s is not under review in status %s", e.SCARNumber, e.Status)
}
