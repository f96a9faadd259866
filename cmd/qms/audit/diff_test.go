package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChangesScalar(t *testing.T) {
	before := map[string]interface{}{"status": "draft", "title": "Cracked housing"}
	after := map[string]interface{}{"status": "open", "title": "Cracked housing"}

	changes, err := ComputeChanges(before, after)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "status", changes[0].Field)
	assert.Equal(t, "draft", changes[0].From)
	assert.Equal(t, "open", changes[0].To)
}

func TestComputeChangesArraysRenderedAsCounts(t *testing.T) {
	before := map[string]interface{}{
		"attachments": []interface{}{},
	}
	after := map[string]interface{}{
		"attachments": []interface{}{
			map[string]interface{}{"fileName": "photo.jpg"},
			map[string]interface{}{"fileName": "report.pdf"},
		},
	}

	changes, err := ComputeChanges(before, after)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "attachments", changes[0].Field)
	assert.Equal(t, 0, changes[0].From)
	assert.Equal(t, 2, changes[0].To)
}

func TestComputeChangesNewField(t *testing.T) {
	before := map[string]interface{}{"status": "pending_disposition"}
	after := map[string]interface{}{
		"status": "pending_disposition",
		"disposition": map[string]interface{}{
			"decision": "rework",
		},
	}

	changes, err := ComputeChanges(before, after)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "disposition", changes[0].Field)
	assert.Nil(t, changes[0].From)
	assert.NotNil(t, changes[0].To)
}

func TestComputeChangesIgnoresBookkeeping(t *testing.T) {
	before := map[string]interface{}{"version": 1, "updatedAt": "2026-01-01T00:00:00Z", "status": "draft"}
	after := map[string]interface{}{"version": 2, "updatedAt": "2026-01-02T00:00:00Z", "status": "draft"}

	changes, err := ComputeChanges(before, after)
	require.NoError(t, err)

	assert.Empty(t, changes)
}

func TestComputeChangesNoDifference(t *testing.T) {
	doc := map[string]interface{}{"status": "open", "title": "same"}

	changes, err := ComputeChanges(doc, doc)
	require.NoError(t, err)

	assert.Empty(t, changes)
}

func TestIsStatusField(t *testing.T) {
	assert.True(t, IsStatusField("status"))
	assert.True(t, IsStatusField("reviewStatus"))
	assert.False(t, IsStatusField("title"))
}
