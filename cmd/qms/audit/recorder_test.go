package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/qms/common/logger"
	"github.com/forgeline/qms/common/models"
	"github.com/forgeline/qms/common/repository"
)

func testRecorder() (*Recorder, *repository.MemoryAuditStore) {
	store := repository.NewMemoryAuditStore()
	return NewRecorder(store, nil, logger.New("error", "text"), false), store
}

func testNCR() *models.NCR {
	return &models.NCR{
		RecordHeader: models.RecordHeader{
			ID:      uuid.New(),
			Number:  "NCR-2026-000020",
			Status:  models.StatusDraft,
			Version: 1,
		},
		Title:      "Porosity in casting",
		Type:       models.NonconformanceMaterial,
		Severity:   models.SeverityMinor,
		ReportedBy: "alice",
	}
}

func TestRecordCreationCarriesSnapshot(t *testing.T) {
	recorder, _ := testRecorder()
	ncr := testNCR()

	entry, err := recorder.Record(context.Background(), models.ActionCreate, "alice", "", nil, ncr)
	require.NoError(t, err)

	assert.Equal(t, int64(1), entry.Seq)
	assert.Equal(t, models.ActionCreate, entry.Action)
	assert.Empty(t, entry.Details.Fields)
	require.NotNil(t, entry.Details.After)
	assert.Equal(t, "NCR-2026-000020", entry.Details.After["number"])
}

func TestRecordMutationCarriesDiff(t *testing.T) {
	recorder, _ := testRecorder()
	ncr := testNCR()

	before, err := models.Clone(ncr)
	require.NoError(t, err)
	ncr.Status = models.StatusOpen

	entry, err := recorder.Record(context.Background(), models.ActionTransition, "alice", "intake complete", before, ncr)
	require.NoError(t, err)

	require.Len(t, entry.Details.Fields, 1)
	assert.Equal(t, "status", entry.Details.Fields[0].Field)
	assert.Equal(t, "draft", entry.Details.Fields[0].From)
	assert.Equal(t, "open", entry.Details.Fields[0].To)
	assert.Equal(t, "intake complete", entry.Details.Reason)
}

func TestSequencesAreMonotonicPerItem(t *testing.T) {
	recorder, store := testRecorder()
	ctx := context.Background()
	first := testNCR()
	second := testNCR()

	for i := 0; i < 3; i++ {
		_, err := recorder.Record(ctx, models.ActionTransition, "alice", "", first, first)
		require.NoError(t, err)
	}
	_, err := recorder.Record(ctx, models.ActionCreate, "bob", "", nil, second)
	require.NoError(t, err)

	entries, err := recorder.Query(ctx, first.ID, models.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, int64(i+1), entry.Seq)
	}

	count, err := store.Count(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestQueryFilters(t *testing.T) {
	recorder, _ := testRecorder()
	ctx := context.Background()
	ncr := testNCR()

	_, err := recorder.Record(ctx, models.ActionCreate, "alice", "", nil, ncr)
	require.NoError(t, err)
	_, err = recorder.Record(ctx, models.ActionTransition, "bob", "", ncr, ncr)
	require.NoError(t, err)

	byAction, err := recorder.Query(ctx, ncr.ID, models.AuditFilter{Action: models.ActionTransition})
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "bob", byAction[0].ActorID)

	byActor, err := recorder.Query(ctx, ncr.ID, models.AuditFilter{ActorID: "alice"})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, models.ActionCreate, byActor[0].Action)
}
