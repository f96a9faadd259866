package approval

import (
	"fmt"
	"time"

	"github.com/forgeline/qms/common/models"
)

// Outcome is the collective verdict of a board vote
type Outcome string

const (
	OutcomeApprove   Outcome = "approve"
	OutcomeReject    Outcome = "reject"
	OutcomeUndecided Outcome = "undecided"
)

// QuorumResult is the derived state of an MRB vote at a point in time
type QuorumResult struct {
	VotesCast      int     `json:"votesCast"`
	QuorumRequired int     `json:"quorumRequired"`
	QuorumMet      bool    `json:"quorumMet"`
	Approvals      int     `json:"approvals"`
	Rejections     int     `json:"rejections"`
	Outcome        Outcome `json:"outcome"`
}

// CastVote records a board member's vote. A member votes at most once, and
// only while the board is reviewing.
func CastVote(m *models.MRB, memberID string, vote models.MRBVote, now time.Time) error {
	switch vote {
	case models.VoteApprove, models.VoteReject, models.VoteAbstain:
	default:
		return fmt.Errorf("invalid vote %q", vote)
	}

	status := m.GetStatus()
	if status != models.MRBStatusInReview && status != models.MRBStatusPendingDisposition {
		return &VoteClosedError{MRBNumber: m.Number, Status: status}
	}

	member := m.Member(memberID)
	if member == nil {
		return &NotAMemberError{MRBNumber: m.Number, MemberID: memberID}
	}
	if member.Vote != "" {
		return &DuplicateVoteError{MRBNumber: m.Number, MemberID: memberID}
	}

	member.Vote = vote
	member.VotedAt = &now
	return nil
}

// EvaluateQuorum derives the current vote state. Quorum counts every cast
// vote, abstentions included. The outcome is the majority of approve/reject
// votes; an even split falls to the chair's vote, and stays undecided when
// the chair has not voted either way.
func EvaluateQuorum(m *models.MRB) QuorumResult {
	result := QuorumResult{
		QuorumRequired: m.QuorumRequired,
		Outcome:        OutcomeUndecided,
	}

	var chairVote models.MRBVote
	for i := range m.Members {
		member := &m.Members[i]
		if member.Vote == "" {
			continue
		}

		result.VotesCast++
		switch member.Vote {
		case models.VoteApprove:
			result.Approvals++
		case models.VoteReject:
			result.Rejections++
		}

		if member.IsChair {
			chairVote = member.Vote
		}
	}

	result.QuorumMet = result.VotesCast >= m.QuorumRequired

	switch {
	case result.Approvals > result.Rejections:
		result.Outcome = OutcomeApprove
	case result.Rejections > result.Approvals:
		result.Outcome = OutcomeReject
	case chairVote == models.VoteApprove:
		result.Outcome = OutcomeApprove
	case chairVote == models.VoteReject:
		result.Outcome = OutcomeReject
	}

	return result
}

// SetMRBDisposition writes the board's decision. The disposition is only
// writable once quorum is met and the vote has a binding outcome.
func SetMRBDisposition(m *models.MRB, disposition models.MRBDisposition) error {
	status := m.GetStatus()
	if status != models.MRBStatusPendingDisposition {
		return &DispositionStageError{Number: m.Number, Status: status}
	}

	result := EvaluateQuorum(m)
	if !result.QuorumMet || result.Outcome == OutcomeUndecided {
		return &QuorumPendingError{
			MRBNumber:      m.Number,
			VotesCast:      result.VotesCast,
			QuorumRequired: result.QuorumRequired,
			Outcome:        result.Outcome,
		}
	}

	m.Disposition = &disposition
	return nil
}
