package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/forgeline/qms/common/models"
)

// FieldError is one failed constraint
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// ValidationError reports a malformed record. It is returned before any
// state change happens.
type ValidationError struct {
	ItemType models.ItemType `json:"itemType"`
	Fields   []FieldError    `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Constraint))
	}
	return fmt.Sprintf("%s validation failed: %s", e.ItemType, strings.Join(parts, ", "))
}

// Validator enforces the per-entity schemas with a shared validator instance
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new schema validator
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// ValidateItem checks a record against its schema. The record is inspected
// in its JSON form so the rules match the persisted layout exactly.
func (v *Validator) ValidateItem(item models.Item) error {
	doc, err := models.ToMap(item)
	if err != nil {
		return fmt.Errorf("failed to render %s for validation: %w", item.GetItemType(), err)
	}

	var fieldErrs []FieldError

	for _, rule := range Schema(item.GetItemType()) {
		value, parentPresent := lookupPath(doc, rule.Path)
		if rule.WhenPresent && !parentPresent {
			continue
		}

		if err := v.validate.Var(value, rule.Tag); err != nil {
			fieldErrs = append(fieldErrs, FieldError{
				Field:      rule.Path,
				Constraint: constraintOf(err, rule.Tag),
			})
		}
	}

	fieldErrs = append(fieldErrs, v.extraChecks(item)...)

	if len(fieldErrs) > 0 {
		return &ValidationError{ItemType: item.GetItemType(), Fields: fieldErrs}
	}

	return nil
}

// extraChecks covers constraints the flat path rules cannot express
// (per-element checks inside arrays)
func (v *Validator) extraChecks(item models.Item) []FieldError {
	var errs []FieldError

	switch rec := item.(type) {
	case *models.MRB:
		for i, member := range rec.Members {
			if member.MemberID == "" {
				errs = append(errs, FieldError{
					Field:      fmt.Sprintf("members[%d].memberId", i),
					Constraint: "required",
				})
			}
			if member.Vote != "" {
				if err := v.validate.Var(string(member.Vote), "oneof=approve reject abstain"); err != nil {
					errs = append(errs, FieldError{
						Field:      fmt.Sprintf("members[%d].vote", i),
						Constraint: "oneof=approve reject abstain",
					})
				}
			}
		}

	case *models.SCAR:
		errs = append(errs, checkSupplierActions("containmentActions", rec.ContainmentActions, v.validate)...)
		errs = append(errs, checkSupplierActions("correctiveActions", rec.CorrectiveActions, v.validate)...)
		errs = append(errs, checkSupplierActions("preventiveActions", rec.PreventiveActions, v.validate)...)
	}

	return errs
}

func checkSupplierActions(field string, actions []models.SupplierAction, validate *validator.Validate) []FieldError {
	var errs []FieldError
	for i, action := range actions {
		if action.EffectivenessRating != 0 {
			if err := validate.Var(action.EffectivenessRating, "min=1,max=5"); err != nil {
				errs = append(errs, FieldError{
					Field:      fmt.Sprintf("%s[%d].effectivenessRating", field, i),
					Constraint: "min=1,max=5",
				})
			}
		}
	}
	return errs
}

// lookupPath walks a dot path through nested JSON maps. The second return
// reports whether the path's parent object exists, so optional sub-object
// rules can be skipped when the whole object is absent.
func lookupPath(doc map[string]interface{}, path string) (interface{}, bool) {
	segments := strings.Split(path, ".")

	current := doc
	for i, segment := range segments {
		value, exists := current[segment]
		if i == len(segments)-1 {
			return value, true
		}

		next, ok := value.(map[string]interface{})
		if !exists || !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}

func constraintOf(err error, tag string) string {
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return tag
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
