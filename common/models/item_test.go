package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneRoundTripsNCR(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	approvalDate := now.Add(time.Hour)

	ncr := &NCR{
		RecordHeader: RecordHeader{
			ID:        uuid.New(),
			Number:    "NCR-2026-000100",
			Status:    NCRStatusPendingDisposition,
			Version:   4,
			CreatedBy: "alice",
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:            "Bent bracket",
		Description:      "Bracket deformed during handling",
		Type:             NonconformanceMaterial,
		Severity:         SeverityMajor,
		Area:             "receiving",
		DefectCode:       "DEF-104",
		LotNumber:        "LOT-88",
		PartNumber:       "PN-1234",
		QuantityAffected: 12,
		ReportedBy:       "alice",
		AssignedTo:       "bob",
		Disposition: &NCRDisposition{
			Decision:      DecisionRework,
			Justification: "within rework limits",
			ApprovedBy: []Signoff{
				{ActorID: "carol", SignedAt: now},
				{ActorID: "dave", SignedAt: now},
			},
			ApprovalDate: &approvalDate,
		},
		MRBNumber: "MRB-2026-000003",
		Attachments: []Attachment{
			{ID: uuid.New(), FileName: "photo.jpg", Size: 1024, MimeType: "image/jpeg", StorageURL: "s3://blobs/photo.jpg", UploadedBy: "alice", UploadedAt: now},
		},
	}

	clone, err := Clone(ncr)
	require.NoError(t, err)

	assert.Equal(t, ncr, clone)
	assert.NotSame(t, ncr, clone)
}

func TestCloneRoundTripsMRB(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	cost := decimal.NewFromFloat(1234.56)

	mrb := &MRB{
		RecordHeader: RecordHeader{
			ID:      uuid.New(),
			Number:  "MRB-2026-000100",
			Status:  MRBStatusInReview,
			Version: 2,
		},
		Type:           "material",
		QuorumRequired: 3,
		Members: []MRBMember{
			{MemberID: "alice", Name: "Alice", IsChair: true, Vote: VoteApprove, VotedAt: &now},
			{MemberID: "bob", Vote: VoteAbstain, VotedAt: &now},
			{MemberID: "carol"},
		},
		ActionItems: []ActionItem{
			{ID: "ai-1", Description: "Quarantine lot 88", Assignee: "bob", Status: ActionItemOpen},
		},
		SourceNCRNumber:  "NCR-2026-000100",
		LinkedNCRNumbers: []string{"NCR-2026-000100"},
		CostImpact:       &cost,
	}

	clone, err := Clone(mrb)
	require.NoError(t, err)
	assert.Equal(t, mrb, clone)
}

func TestCloneRoundTripsCAPA(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	capa := &CAPA{
		RecordHeader: RecordHeader{
			ID:      uuid.New(),
			Number:  "CAPA-2026-000100",
			Status:  CAPAStatusImplementing,
			Version: 7,
		},
		Title: "Repeat solder voids",
		Type:  CAPACorrective,
		D1:    &EightDStep{Description: "Form team", Status: StepVerified, TeamMembers: []string{"alice", "bob"}},
		D4:    &EightDStep{Description: "Root cause", Status: StepCompleted, CompletedDate: &now},
		D6:    &EightDStep{Description: "Implement", Status: StepInProgress, Owner: "bob"},
	}

	clone, err := Clone(capa)
	require.NoError(t, err)
	assert.Equal(t, capa, clone)
}

func TestCloneRoundTripsSCAR(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	scar := &SCAR{
		RecordHeader: RecordHeader{
			ID:      uuid.New(),
			Number:  "SCAR-2026-000100",
			Status:  SCARStatusReview,
			Version: 3,
		},
		SupplierName: "Acme Castings",
		SupplierCode: "SUP-17",
		ContainmentActions: []SupplierAction{
			{Description: "Sort stock on hand", Status: SupplierActionCompleted, Verified: true, EffectivenessRating: 4},
		},
		RootCauses: []SCARRootCause{
			{Category: "process", Analysis: "die temperature drift", Verified: true},
		},
		SupplierResponse: &SupplierResponse{RespondedBy: "vendor", RespondedAt: now, Summary: "controls added"},
		ReviewStatus:     ReviewPendingInfo,
		SourceNCRNumber:  "NCR-2026-000100",
	}

	clone, err := Clone(scar)
	require.NoError(t, err)
	assert.Equal(t, scar, clone)
}

func TestCloneIsolation(t *testing.T) {
	ncr := &NCR{
		RecordHeader: RecordHeader{ID: uuid.New(), Number: "NCR-2026-000101", Status: StatusDraft, Version: 1},
		Title:        "original",
	}

	clone, err := Clone(ncr)
	require.NoError(t, err)

	clone.(*NCR).Title = "mutated"
	assert.Equal(t, "original", ncr.Title)
}

func TestNewItemUnknownType(t *testing.T) {
	_, err := NewItem(ItemType("widget"))
	assert.Error(t, err)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusDraft, InitialStatus(ItemTypeNCR))
	assert.Equal(t, MRBStatusPendingReview, InitialStatus(ItemTypeMRB))
	assert.Equal(t, StatusDraft, InitialStatus(ItemTypeCAPA))
	assert.Equal(t, StatusDraft, InitialStatus(ItemTypeSCAR))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(ItemTypeNCR, StatusClosed))
	assert.True(t, IsTerminal(ItemTypeCAPA, CAPAStatusCancelled))
	assert.False(t, IsTerminal(ItemTypeNCR, CAPAStatusCancelled))
	assert.False(t, IsTerminal(ItemTypeMRB, MRBStatusApproved))
}

func TestCAPAStepAccessors(t *testing.T) {
	capa := &CAPA{}
	step := &EightDStep{Description: "d5", Status: StepPending}

	require.True(t, capa.SetStep("d5", step))
	assert.Equal(t, step, capa.Step("d5"))
	assert.False(t, capa.SetStep("d9", step))
	assert.Nil(t, capa.Step("d9"))

	assert.Equal(t, []string{"d5"}, capa.PendingSteps())
}

func TestMRBVoteHelpers(t *testing.T) {
	mrb := &MRB{Members: []MRBMember{
		{MemberID: "alice", Vote: VoteApprove},
		{MemberID: "bob"},
	}}

	assert.Equal(t, 1, mrb.VotesCast())
	require.NotNil(t, mrb.Member("bob"))
	assert.Nil(t, mrb.Member("zed"))
}
