package approval

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/qms/common/models"
)

func boardWith(status models.Status, quorum int, members ...models.MRBMember) *models.MRB {
	return &models.MRB{
		RecordHeader: models.RecordHeader{
			ID:      uuid.New(),
			Number:  "MRB-2026-000010",
			Status:  status,
			Version: 1,
		},
		Type:           "material",
		Members:        members,
		QuorumRequired: quorum,
	}
}

func TestCastVoteRejectsNonMember(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 2, models.MRBMember{MemberID: "alice"})

	err := CastVote(mrb, "mallory", models.VoteApprove, time.Now())

	var notAMember *NotAMemberError
	require.ErrorAs(t, err, &notAMember)
	assert.Equal(t, "mallory", notAMember.MemberID)
}

func TestCastVoteRejectsSecondVote(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 2, models.MRBMember{MemberID: "alice"})
	require.NoError(t, CastVote(mrb, "alice", models.VoteApprove, time.Now()))

	err := CastVote(mrb, "alice", models.VoteReject, time.Now())

	var duplicate *DuplicateVoteError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, models.VoteApprove, mrb.Member("alice").Vote)
}

func TestCastVoteRejectsWrongStatus(t *testing.T) {
	mrb := boardWith(models.MRBStatusApproved, 2, models.MRBMember{MemberID: "alice"})

	err := CastVote(mrb, "alice", models.VoteApprove, time.Now())

	var closed *VoteClosedError
	require.ErrorAs(t, err, &closed)
}

func TestCastVoteRejectsInvalidVote(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 2, models.MRBMember{MemberID: "alice"})

	assert.Error(t, CastVote(mrb, "alice", models.MRBVote("maybe"), time.Now()))
}

func TestQuorumCountsAbstentions(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 3,
		models.MRBMember{MemberID: "alice"},
		models.MRBMember{MemberID: "bob"},
		models.MRBMember{MemberID: "carol"},
	)
	now := time.Now()
	require.NoError(t, CastVote(mrb, "alice", models.VoteApprove, now))
	require.NoError(t, CastVote(mrb, "bob", models.VoteAbstain, now))
	require.NoError(t, CastVote(mrb, "carol", models.VoteAbstain, now))

	result := EvaluateQuorum(mrb)

	assert.True(t, result.QuorumMet)
	assert.Equal(t, 3, result.VotesCast)
	assert.Equal(t, OutcomeApprove, result.Outcome)
}

func TestQuorumChairBreaksTie(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 2,
		models.MRBMember{MemberID: "alice", IsChair: true},
		models.MRBMember{MemberID: "bob"},
	)
	now := time.Now()
	require.NoError(t, CastVote(mrb, "alice", models.VoteReject, now))
	require.NoError(t, CastVote(mrb, "bob", models.VoteApprove, now))

	result := EvaluateQuorum(mrb)

	assert.Equal(t, OutcomeReject, result.Outcome)
}

func TestQuorumEvenSplitWithoutChairVoteIsUndecided(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 2,
		models.MRBMember{MemberID: "alice", IsChair: true},
		models.MRBMember{MemberID: "bob"},
		models.MRBMember{MemberID: "carol"},
	)
	now := time.Now()
	require.NoError(t, CastVote(mrb, "bob", models.VoteApprove, now))
	require.NoError(t, CastVote(mrb, "carol", models.VoteReject, now))

	result := EvaluateQuorum(mrb)

	assert.True(t, result.QuorumMet)
	assert.Equal(t, OutcomeUndecided, result.Outcome)
}

func TestQuorumChairAbstentionLeavesTieUndecided(t *testing.T) {
	mrb := boardWith(models.MRBStatusInReview, 3,
		models.MRBMember{MemberID: "alice", IsChair: true},
		models.MRBMember{MemberID: "bob"},
		models.MRBMember{MemberID: "carol"},
	)
	now := time.Now()
	require.NoError(t, CastVote(mrb, "alice", models.VoteAbstain, now))
	require.NoError(t, CastVote(mrb, "bob", models.VoteApprove, now))
	require.NoError(t, CastVote(mrb, "carol", models.VoteReject, now))

	result := EvaluateQuorum(mrb)

	assert.Equal(t, OutcomeUndecided, result.Outcome)
}

func TestSetMRBDispositionRequiresBindingOutcome(t *testing.T) {
	mrb := boardWith(models.MRBStatusPendingDisposition, 2,
		models.MRBMember{MemberID: "alice"},
		models.MRBMember{MemberID: "bob"},
	)
	require.NoError(t, CastVote(mrb, "alice", models.VoteApprove, time.Now()))

	err := SetMRBDisposition(mrb, models.MRBDisposition{Decision: models.DecisionUseAsIs})

	var pending *QuorumPendingError
	require.ErrorAs(t, err, &pending)
	assert.Nil(t, mrb.Disposition)

	require.NoError(t, CastVote(mrb, "bob", models.VoteApprove, time.Now()))
	require.NoError(t, SetMRBDisposition(mrb, models.MRBDisposition{Decision: models.DecisionUseAsIs, Justification: "cosmetic only"}))
	require.NotNil(t, mrb.Disposition)
}

func TestSetNCRDispositionStage(t *testing.T) {
	ncr := &models.NCR{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "NCR-2026-000010", Status: models.NCRStatusUnderReview, Version: 1,
		},
	}

	err := SetNCRDisposition(ncr, models.DecisionRework, "within limits")

	var stage *DispositionStageError
	require.ErrorAs(t, err, &stage)

	ncr.Status = models.NCRStatusPendingDisposition
	require.NoError(t, SetNCRDisposition(ncr, models.DecisionRework, "within limits"))
	assert.Equal(t, models.DecisionRework, ncr.Disposition.Decision)
}

func TestAddApprovalIsOrderedAndAppendOnly(t *testing.T) {
	ncr := &models.NCR{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "NCR-2026-000011", Status: models.NCRStatusPendingDisposition, Version: 1,
		},
		Disposition: &models.NCRDisposition{Decision: models.DecisionUseAsIs},
	}
	now := time.Now()

	require.NoError(t, AddApproval(ncr, "alice", 2, now))
	require.NoError(t, AddApproval(ncr, "bob", 2, now))

	require.Len(t, ncr.Disposition.ApprovedBy, 2)
	assert.Equal(t, "alice", ncr.Disposition.ApprovedBy[0].ActorID)
	assert.Equal(t, "bob", ncr.Disposition.ApprovedBy[1].ActorID)
	assert.NotNil(t, ncr.Disposition.ApprovalDate)
}

func TestAddApprovalRejectsDuplicateSigner(t *testing.T) {
	ncr := &models.NCR{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "NCR-2026-000012", Status: models.NCRStatusPendingDisposition, Version: 1,
		},
		Disposition: &models.NCRDisposition{Decision: models.DecisionUseAsIs},
	}
	require.NoError(t, AddApproval(ncr, "alice", 1, time.Now()))

	err := AddApproval(ncr, "alice", 1, time.Now())

	var duplicate *DuplicateSignoffError
	require.ErrorAs(t, err, &duplicate)
	assert.Len(t, ncr.Disposition.ApprovedBy, 1)
}

func TestAddApprovalRequiresDisposition(t *testing.T) {
	ncr := &models.NCR{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "NCR-2026-000013", Status: models.NCRStatusPendingDisposition, Version: 1,
		},
	}

	err := AddApproval(ncr, "alice", 1, time.Now())

	var stage *DispositionStageError
	require.ErrorAs(t, err, &stage)
}

func TestAdvanceStepIsMonotonic(t *testing.T) {
	capa := &models.CAPA{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "CAPA-2026-000010", Status: models.CAPAStatusInProgress, Version: 1,
		},
		D2: &models.EightDStep{Description: "Describe the problem", Status: models.StepPending},
	}
	now := time.Now()

	// Skipping a stage is rejected
	err := AdvanceStep(capa, "d2", models.StepCompleted, now)
	var order *StepOrderError
	require.ErrorAs(t, err, &order)

	require.NoError(t, AdvanceStep(capa, "d2", models.StepInProgress, now))
	require.NoError(t, AdvanceStep(capa, "d2", models.StepCompleted, now))
	require.NotNil(t, capa.D2.CompletedDate)
	require.NoError(t, AdvanceStep(capa, "d2", models.StepVerified, now))

	// Moving backwards is rejected
	err = AdvanceStep(capa, "d2", models.StepInProgress, now)
	require.ErrorAs(t, err, &order)
	assert.Equal(t, models.StepVerified, capa.D2.Status)
}

func TestAdvanceStepUnknownKey(t *testing.T) {
	capa := &models.CAPA{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "CAPA-2026-000011", Status: models.CAPAStatusInProgress, Version: 1,
		},
	}

	err := AdvanceStep(capa, "d9", models.StepInProgress, time.Now())

	var unknown *UnknownStepError
	require.ErrorAs(t, err, &unknown)

	// d1 exists as a key but is not defined on this record
	err = AdvanceStep(capa, "d1", models.StepInProgress, time.Now())
	require.ErrorAs(t, err, &unknown)
}

func TestSupplierResponseStage(t *testing.T) {
	scar := &models.SCAR{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "SCAR-2026-000010", Status: models.StatusDraft, Version: 1,
		},
		SupplierName: "Acme Castings",
	}

	err := RecordSupplierResponse(scar, models.SupplierResponse{RespondedBy: "vendor"})
	var stage *ResponseStageError
	require.ErrorAs(t, err, &stage)

	scar.Status = models.SCARStatusSupplierResponse
	require.NoError(t, RecordSupplierResponse(scar, models.SupplierResponse{
		RespondedBy: "vendor",
		RespondedAt: time.Now(),
		Summary:     "containment in place",
	}))
	require.NotNil(t, scar.SupplierResponse)
}

func TestSetReviewStatus(t *testing.T) {
	scar := &models.SCAR{
		RecordHeader: models.RecordHeader{
			ID: uuid.New(), Number: "SCAR-2026-000011", Status: models.SCARStatusReview, Version: 1,
		},
	}

	assert.Error(t, SetReviewStatus(scar, models.ReviewStatus("great")))
	require.NoError(t, SetReviewStatus(scar, models.ReviewPendingInfo))
	assert.Equal(t, models.ReviewPendingInfo, scar.ReviewStatus)

	scar.Status = models.StatusClosed
	var stage *ReviewStageError
	require.ErrorAs(t, SetReviewStatus(scar, models.ReviewApproved), &stage)
}
