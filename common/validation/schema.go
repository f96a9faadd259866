package validation

import "github.com/forgeline/qms/common/models"

// FieldRule is one constraint in an entity schema. Path is a dot path into
// the record's JSON form; Tag is the constraint evaluated by the validator.
// Rules with WhenPresent only apply once the optional parent object exists.
type FieldRule struct {
	Path        string
	Tag         string
	WhenPresent bool
}

const dispositionDecisions = "use_as_is rework repair return_to_supplier scrap deviate"

// schemas describes each record type as data so a single generic validator
// can enforce all of them
var schemas = map[models.ItemType][]FieldRule{
	models.ItemTypeNCR: {
		{Path: "title", Tag: "required"},
		{Path: "type", Tag: "required,oneof=material documentation product process equipment"},
		{Path: "severity", Tag: "required,oneof=minor major critical"},
		{Path: "reportedBy", Tag: "required"},
		{Path: "quantityAffected", Tag: "omitempty,min=0"},
		{Path: "disposition.decision", Tag: "required,oneof=" + dispositionDecisions, WhenPresent: true},
		{Path: "disposition.justification", Tag: "required", WhenPresent: true},
	},
	models.ItemTypeMRB: {
		{Path: "type", Tag: "required,oneof=material documentation product process equipment"},
		{Path: "quorumRequired", Tag: "required,min=1"},
		{Path: "disposition.decision", Tag: "required,oneof=" + dispositionDecisions, WhenPresent: true},
		{Path: "disposition.justification", Tag: "required", WhenPresent: true},
	},
	models.ItemTypeCAPA: {
		{Path: "title", Tag: "required"},
		{Path: "type", Tag: "required,oneof=corrective preventive improvement"},
		{Path: "d1.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d2.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d3.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d4.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d5.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d6.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d7.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
		{Path: "d8.status", Tag: "required,oneof=pending in_progress completed verified", WhenPresent: true},
	},
	models.ItemTypeSCAR: {
		{Path: "supplierName", Tag: "required"},
		{Path: "reviewStatus", Tag: "omitempty,oneof=approved rejected pending_info"},
		{Path: "supplierResponse.respondedBy", Tag: "required", WhenPresent: true},
	},
}

// Schema returns the field rules for an item type (nil for unknown types)
func Schema(itemType models.ItemType) []FieldRule {
	return schemas[itemType]
}
