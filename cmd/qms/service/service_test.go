package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/qms/cmd/qms/audit"
	"github.com/forgeline/qms/cmd/qms/statemachine"
	"github.com/forgeline/qms/common/logger"
	"github.com/forgeline/qms/common/models"
	"github.com/forgeline/qms/common/repository"
	"github.com/forgeline/qms/common/validation"
)

type fixture struct {
	records      *RecordService
	dispositions *DispositionService
	links        *LinkageService
	attachments  *AttachmentService
	auditStore   *repository.MemoryAuditStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New("error", "text")
	recordStore := repository.NewMemoryRecordStore()
	auditStore := repository.NewMemoryAuditStore()
	recorder := audit.NewRecorder(auditStore, nil, log, false)

	records := NewRecordService(
		recordStore,
		recorder,
		statemachine.NewMachine(1),
		validation.NewValidator(),
		NewNumberGenerator(nil),
		nil,
		nil,
		log,
		time.Minute,
		3,
	)

	return &fixture{
		records:      records,
		dispositions: NewDispositionService(records, 1),
		links:        NewLinkageService(records),
		attachments:  NewAttachmentService(records, nil),
		auditStore:   auditStore,
	}
}

func (f *fixture) createNCR(t *testing.T) *models.NCR {
	t.Helper()

	item, err := f.records.Create(context.Background(), &models.NCR{
		Title:      "Scratched lens on optical assembly",
		Type:       models.NonconformanceProduct,
		Severity:   models.SeverityMinor,
		ReportedBy: "alice",
	}, "alice")
	require.NoError(t, err)
	return item.(*models.NCR)
}

func TestCreateAssignsIdentity(t *testing.T) {
	f := newFixture(t)
	ncr := f.createNCR(t)

	assert.NotEmpty(t, ncr.ID)
	assert.Regexp(t, `^NCR-\d{4}-\d{6}$`, ncr.Number)
	assert.Equal(t, models.StatusDraft, ncr.Status)
	assert.Equal(t, int64(1), ncr.Version)
	assert.Equal(t, "alice", ncr.CreatedBy)

	// Creation writes exactly one audit entry
	count, err := f.auditStore.Count(context.Background(), ncr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	f := newFixture(t)

	_, err := f.records.Create(context.Background(), &models.NCR{
		Title: "Missing everything else",
	}, "alice")

	var validationErr *validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Fields)
}

func TestCreateMRBDefaultsQuorum(t *testing.T) {
	f := newFixture(t)

	item, err := f.records.Create(context.Background(), &models.MRB{
		Type: "material",
		Members: []models.MRBMember{
			{MemberID: "alice", IsChair: true},
			{MemberID: "bob"},
			{MemberID: "carol"},
		},
	}, "alice")
	require.NoError(t, err)

	mrb := item.(*models.MRB)
	assert.Equal(t, 3, mrb.QuorumRequired)
	assert.Equal(t, models.MRBStatusPendingReview, mrb.Status)
}

func TestTransitionBumpsVersionAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	item, err := f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusOpen, "alice", "intake complete", ncr.Version)
	require.NoError(t, err)

	assert.Equal(t, models.StatusOpen, item.GetStatus())
	assert.Equal(t, int64(2), item.GetVersion())

	count, err := f.auditStore.Count(ctx, ncr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransitionStaleWriteRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	// Another session transitions first
	_, err := f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusOpen, "bob", "", ncr.Version)
	require.NoError(t, err)

	// A write against the version this session observed must fail and leave
	// the newer state untouched
	_, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusOpen, "alice", "", ncr.Version)

	var stale *repository.StaleWriteError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, int64(2), stale.CurrentVersion)
	require.NotNil(t, stale.Current)
	assert.Equal(t, models.StatusOpen, stale.Current.GetStatus())

	current, err := f.records.Get(ctx, models.ItemTypeNCR, ncr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.GetVersion())
}

func TestUpdateMergesEditableFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	item, err := f.records.Update(ctx, models.ItemTypeNCR, ncr.ID,
		[]byte(`{"severity":"major","description":"deep gouge across coating"}`),
		"alice", ncr.Version)
	require.NoError(t, err)

	updated := item.(*models.NCR)
	assert.Equal(t, models.SeverityMajor, updated.Severity)
	assert.Equal(t, "deep gouge across coating", updated.Description)
	// Untouched fields survive the merge
	assert.Equal(t, ncr.Title, updated.Title)
	assert.Equal(t, int64(2), updated.Version)
}

func TestUpdateCannotChangeIdentityOrStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	item, err := f.records.Update(ctx, models.ItemTypeNCR, ncr.ID,
		[]byte(`{"status":"closed","number":"NCR-9999-999999","version":42}`),
		"alice", 0)
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, item.GetStatus())
	assert.Equal(t, ncr.Number, item.GetNumber())
	assert.Equal(t, int64(2), item.GetVersion())
}

func TestUpdateCannotSetDisposition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	// A patch naming the disposition must not bypass the disposition service
	item, err := f.records.Update(ctx, models.ItemTypeNCR, ncr.ID,
		[]byte(`{"disposition":{"decision":"scrap","justification":"sneaky"},"severity":"major"}`),
		"alice", 0)
	require.NoError(t, err)

	updated := item.(*models.NCR)
	assert.Nil(t, updated.Disposition)
	assert.Equal(t, models.SeverityMajor, updated.Severity)
}

func TestUpdateCannotRewriteVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.records.Create(ctx, &models.MRB{
		Type:           "material",
		QuorumRequired: 2,
		Members:        []models.MRBMember{{MemberID: "alice"}, {MemberID: "bob"}},
	}, "alice")
	require.NoError(t, err)
	mrb := item.(*models.MRB)

	item, err = f.records.Update(ctx, models.ItemTypeMRB, mrb.ID,
		[]byte(`{"members":[{"memberId":"alice","vote":"approve"},{"memberId":"bob","vote":"approve"}],"quorumRequired":1}`),
		"alice", 0)
	require.NoError(t, err)

	updated := item.(*models.MRB)
	assert.Equal(t, 0, updated.VotesCast())
	assert.Equal(t, 2, updated.QuorumRequired)
}

func TestUpdateCannotRewriteSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.records.Create(ctx, &models.CAPA{
		Title: "Recurring solder voids",
		Type:  models.CAPACorrective,
	}, "alice")
	require.NoError(t, err)
	capa := item.(*models.CAPA)

	item, err = f.records.Update(ctx, models.ItemTypeCAPA, capa.ID,
		[]byte(`{"d6":{"description":"forged","status":"verified"},"description":"updated scope"}`),
		"alice", 0)
	require.NoError(t, err)

	updated := item.(*models.CAPA)
	assert.Nil(t, updated.D6)
	assert.Equal(t, "updated scope", updated.Description)
}

func TestUpdateStaleWriteRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	_, err := f.records.Update(ctx, models.ItemTypeNCR, ncr.ID,
		[]byte(`{"severity":"major"}`), "bob", ncr.Version)
	require.NoError(t, err)

	_, err = f.records.Update(ctx, models.ItemTypeNCR, ncr.ID,
		[]byte(`{"severity":"critical"}`), "alice", ncr.Version)

	var stale *repository.StaleWriteError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, int64(2), stale.CurrentVersion)
}

func TestUpdateRevalidatesMergedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	// Merging away a required field must fail validation, not persist
	_, err := f.records.Update(ctx, models.ItemTypeNCR, ncr.ID,
		[]byte(`{"title":null}`), "alice", 0)

	var validationErr *validation.ValidationError
	require.ErrorAs(t, err, &validationErr)

	current, err := f.records.Get(ctx, models.ItemTypeNCR, ncr.ID)
	require.NoError(t, err)
	assert.Equal(t, ncr.Title, current.(*models.NCR).Title)
	assert.Equal(t, int64(1), current.GetVersion())
}

func TestFullNCRWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	item, err := f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusOpen, "alice", "", 0)
	require.NoError(t, err)
	item, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.NCRStatusUnderReview, "alice", "", 0)
	require.NoError(t, err)
	item, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.NCRStatusPendingDisposition, "alice", "", 0)
	require.NoError(t, err)

	// Closing is still guarded: no disposition yet
	_, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusClosed, "alice", "", 0)
	var guard *statemachine.GuardError
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, statemachine.ReasonDispositionMissing, guard.Reason)

	_, err = f.dispositions.SetNCRDisposition(ctx, ncr.ID, "carol", models.DecisionUseAsIs, "cosmetic defect only", 0)
	require.NoError(t, err)
	_, err = f.dispositions.AddApproval(ctx, ncr.ID, "carol", 0)
	require.NoError(t, err)

	item, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusClosed, "carol", "disposition approved", 0)
	require.NoError(t, err)

	closed := item.(*models.NCR)
	assert.Equal(t, models.StatusClosed, closed.Status)
	assert.Equal(t, "carol", closed.ClosedBy)

	// Terminal: nothing mutates a closed record
	_, err = f.dispositions.SetNCRDisposition(ctx, ncr.ID, "carol", models.DecisionScrap, "changed my mind", 0)
	var terminal *statemachine.TerminalStateError
	require.ErrorAs(t, err, &terminal)
}

func TestMRBVoteFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.records.Create(ctx, &models.MRB{
		Type:           "material",
		QuorumRequired: 3,
		Members: []models.MRBMember{
			{MemberID: "alice", IsChair: true},
			{MemberID: "bob"},
			{MemberID: "carol"},
		},
	}, "alice")
	require.NoError(t, err)
	mrb := item.(*models.MRB)

	_, err = f.records.Transition(ctx, models.ItemTypeMRB, mrb.ID, models.MRBStatusInReview, "alice", "", 0)
	require.NoError(t, err)

	_, err = f.dispositions.CastVote(ctx, mrb.ID, "alice", models.VoteApprove, 0)
	require.NoError(t, err)
	_, err = f.dispositions.CastVote(ctx, mrb.ID, "bob", models.VoteReject, 0)
	require.NoError(t, err)

	_, err = f.records.Transition(ctx, models.ItemTypeMRB, mrb.ID, models.MRBStatusPendingDisposition, "alice", "", 0)
	require.NoError(t, err)

	// Two of three votes: approval transition blocked
	_, err = f.records.Transition(ctx, models.ItemTypeMRB, mrb.ID, models.MRBStatusApproved, "alice", "", 0)
	var guard *statemachine.GuardError
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, statemachine.ReasonQuorumNotMet, guard.Reason)

	_, err = f.dispositions.CastVote(ctx, mrb.ID, "carol", models.VoteApprove, 0)
	require.NoError(t, err)

	quorum, err := f.dispositions.Quorum(ctx, mrb.ID)
	require.NoError(t, err)
	assert.True(t, quorum.QuorumMet)

	_, err = f.dispositions.SetMRBDisposition(ctx, mrb.ID, "alice", models.MRBDisposition{
		Decision:      models.DecisionRework,
		Justification: "board approved rework",
	}, 0)
	require.NoError(t, err)

	item, err = f.records.Transition(ctx, models.ItemTypeMRB, mrb.ID, models.MRBStatusApproved, "alice", "", 0)
	require.NoError(t, err)
	assert.Equal(t, models.MRBStatusApproved, item.GetStatus())
}

func TestLinkageSymmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	item, err := f.records.Create(ctx, &models.MRB{
		Type:           "material",
		QuorumRequired: 2,
		Members:        []models.MRBMember{{MemberID: "alice"}, {MemberID: "bob"}},
	}, "alice")
	require.NoError(t, err)
	mrb := item.(*models.MRB)

	_, err = f.links.Link(ctx, models.ItemTypeNCR, ncr.ID, models.ItemTypeMRB, mrb.ID, "alice")
	require.NoError(t, err)

	gotNCR, err := f.records.Get(ctx, models.ItemTypeNCR, ncr.ID)
	require.NoError(t, err)
	gotMRB, err := f.records.Get(ctx, models.ItemTypeMRB, mrb.ID)
	require.NoError(t, err)

	assert.Equal(t, mrb.Number, gotNCR.(*models.NCR).MRBNumber)
	assert.Equal(t, ncr.Number, gotMRB.(*models.MRB).SourceNCRNumber)
	assert.Contains(t, gotMRB.(*models.MRB).LinkedNCRNumbers, ncr.Number)

	_, err = f.links.Unlink(ctx, models.ItemTypeNCR, ncr.ID, models.ItemTypeMRB, mrb.ID, "alice")
	require.NoError(t, err)

	gotNCR, err = f.records.Get(ctx, models.ItemTypeNCR, ncr.ID)
	require.NoError(t, err)
	gotMRB, err = f.records.Get(ctx, models.ItemTypeMRB, mrb.ID)
	require.NoError(t, err)

	assert.Empty(t, gotNCR.(*models.NCR).MRBNumber)
	assert.Empty(t, gotMRB.(*models.MRB).SourceNCRNumber)
	assert.Empty(t, gotMRB.(*models.MRB).LinkedNCRNumbers)
}

func TestUnlinkWithoutLinkFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	item, err := f.records.Create(ctx, &models.CAPA{
		Title: "Unrelated improvement",
		Type:  models.CAPAImprovement,
	}, "alice")
	require.NoError(t, err)

	_, err = f.links.Unlink(ctx, models.ItemTypeNCR, ncr.ID, models.ItemTypeCAPA, item.GetID(), "alice")

	var dangling *DanglingLinkError
	require.ErrorAs(t, err, &dangling)
}

func TestLinkConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	first, err := f.records.Create(ctx, &models.CAPA{Title: "First fix", Type: models.CAPACorrective}, "alice")
	require.NoError(t, err)
	second, err := f.records.Create(ctx, &models.CAPA{Title: "Second fix", Type: models.CAPACorrective}, "alice")
	require.NoError(t, err)

	_, err = f.links.Link(ctx, models.ItemTypeNCR, ncr.ID, models.ItemTypeCAPA, first.GetID(), "alice")
	require.NoError(t, err)

	_, err = f.links.Link(ctx, models.ItemTypeNCR, ncr.ID, models.ItemTypeCAPA, second.GetID(), "alice")

	var conflict *LinkConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestClosedRecordMayReceiveLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	// Walk the NCR to closed
	_, err := f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusOpen, "alice", "", 0)
	require.NoError(t, err)
	_, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.NCRStatusUnderReview, "alice", "", 0)
	require.NoError(t, err)
	_, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.NCRStatusPendingDisposition, "alice", "", 0)
	require.NoError(t, err)
	_, err = f.dispositions.SetNCRDisposition(ctx, ncr.ID, "alice", models.DecisionScrap, "unusable", 0)
	require.NoError(t, err)
	_, err = f.dispositions.AddApproval(ctx, ncr.ID, "alice", 0)
	require.NoError(t, err)
	_, err = f.records.Transition(ctx, models.ItemTypeNCR, ncr.ID, models.StatusClosed, "alice", "", 0)
	require.NoError(t, err)

	scar, err := f.records.Create(ctx, &models.SCAR{SupplierName: "Acme Castings"}, "alice")
	require.NoError(t, err)

	// Traceability links still attach to closed records
	_, err = f.links.Link(ctx, models.ItemTypeSCAR, scar.GetID(), models.ItemTypeNCR, ncr.ID, "alice")
	require.NoError(t, err)

	got, err := f.records.Get(ctx, models.ItemTypeSCAR, scar.GetID())
	require.NoError(t, err)
	assert.Equal(t, ncr.Number, got.(*models.SCAR).SourceNCRNumber)
}

func TestAttachmentMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	_, err := f.attachments.Add(ctx, models.ItemTypeNCR, ncr.ID, "alice", models.Attachment{
		FileName:   "defect-photo.jpg",
		Size:       52341,
		MimeType:   "image/jpeg",
		StorageURL: "s3://qms-blobs/defect-photo.jpg",
	}, 0)
	require.NoError(t, err)

	attachments, err := f.attachments.List(ctx, models.ItemTypeNCR, ncr.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "alice", attachments[0].UploadedBy)
	assert.NotEmpty(t, attachments[0].ID)
}

func TestAttachmentRejectsBadStorageURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ncr := f.createNCR(t)

	_, err := f.attachments.Add(ctx, models.ItemTypeNCR, ncr.ID, "alice", models.Attachment{
		FileName:   "notes.txt",
		StorageURL: "file:///etc/passwd",
	}, 0)

	var validationErr *validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestProgressLookup(t *testing.T) {
	p := GetProgress(models.ItemTypeNCR, models.StatusClosed)
	assert.Equal(t, Progress{StepIndex: 3, TotalSteps: 3, Percent: 100}, p)

	p = GetProgress(models.ItemTypeNCR, models.NCRStatusUnderReview)
	assert.Equal(t, Progress{StepIndex: 1, TotalSteps: 3, Percent: 33}, p)

	p = GetProgress(models.ItemTypeCAPA, models.CAPAStatusImplementing)
	assert.Equal(t, Progress{StepIndex: 4, TotalSteps: 8, Percent: 50}, p)

	// Unknown statuses never fail, they read as not started
	p = GetProgress(models.ItemTypeSCAR, models.Status("bogus"))
	assert.Equal(t, Progress{StepIndex: 0, TotalSteps: 4, Percent: 0}, p)

	p = GetProgress(models.ItemType("unknown"), models.StatusOpen)
	assert.Equal(t, Progress{}, p)
}

func TestNumberGeneratorLocalFallback(t *testing.T) {
	g := NewNumberGenerator(nil)
	ctx := context.Background()

	first, err := g.Next(ctx, models.ItemTypeNCR)
	require.NoError(t, err)
	second, err := g.Next(ctx, models.ItemTypeNCR)
	require.NoError(t, err)
	other, err := g.Next(ctx, models.ItemTypeSCAR)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, `^NCR-\d{4}-000001$`, first)
	assert.Regexp(t, `^SCAR-\d{4}-000001$`, other)
}
