package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/forgeline/qms/common/models"
)

// fields the diff never reports: bookkeeping the engine writes on every
// mutation, not meaningful history
var ignoredFields = map[string]bool{
	"version":   true,
	"updatedAt": true,
}

// ComputeChanges derives the field-level diff between two record snapshots
// from a JSON merge patch. Rendering rules: status-like fields become
// from/to pairs, arrays become element counts to bound entry size, scalars
// and nested objects carry raw before/after values.
func ComputeChanges(before, after map[string]interface{}) ([]models.FieldChange, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal before snapshot: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal after snapshot: %w", err)
	}

	patch, err := jsonpatch.CreateMergePatch(beforeJSON, afterJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compute merge patch: %w", err)
	}

	var changed map[string]interface{}
	if err := json.Unmarshal(patch, &changed); err != nil {
		return nil, fmt.Errorf("failed to decode merge patch: %w", err)
	}

	fields := make([]string, 0, len(changed))
	for field := range changed {
		if !ignoredFields[field] {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	changes := make([]models.FieldChange, 0, len(fields))
	for _, field := range fields {
		changes = append(changes, renderChange(field, before[field], after[field]))
	}
	return changes, nil
}

func renderChange(field string, before, after interface{}) models.FieldChange {
	if beforeArr, ok := before.([]interface{}); ok {
		return models.FieldChange{Field: field, From: len(beforeArr), To: arrayCount(after)}
	}
	if afterArr, ok := after.([]interface{}); ok {
		return models.FieldChange{Field: field, From: arrayCount(before), To: len(afterArr)}
	}

	return models.FieldChange{Field: field, From: before, To: after}
}

func arrayCount(v interface{}) int {
	if arr, ok := v.([]interface{}); ok {
		return len(arr)
	}
	return 0
}

// IsStatusField reports whether a field name carries workflow state. Kept as
// a named predicate so diff consumers render these as from/to transitions.
func IsStatusField(field string) bool {
	return field == "status" || strings.HasSuffix(field, "Status")
}
