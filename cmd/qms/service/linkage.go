package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/models"
)

// LinkageService maintains the bidirectional references between records:
// NCR.mrbNumber with MRB.sourceNCRNumber, NCR.capaNumber with
// CAPA.sourceNcrId, and SCAR.sourceNcrNumber pointing back at its NCR. Both
// sides of a reference are written in one atomic store update, so a reader
// never observes a reference dangling on one side. Closed records may still
// receive links for traceability; removing a link only clears references,
// the records themselves are untouched.
type LinkageService struct {
	records *RecordService
}

// NewLinkageService creates the linkage service
func NewLinkageService(records *RecordService) *LinkageService {
	return &LinkageService{records: records}
}

// Link connects an NCR to an MRB, CAPA or SCAR. Either side of the pair may
// be named first.
func (s *LinkageService) Link(ctx context.Context, parentType models.ItemType, parentID uuid.UUID, childType models.ItemType, childID uuid.UUID, actor string) (models.Item, error) {
	return s.apply(ctx, parentType, parentID, childType, childID, actor, models.ActionLink)
}

// Unlink clears both sides of an existing link. A reference that is set on
// one side but absent or pointing elsewhere on the other is an invariant
// violation and aborts the operation.
func (s *LinkageService) Unlink(ctx context.Context, parentType models.ItemType, parentID uuid.UUID, childType models.ItemType, childID uuid.UUID, actor string) (models.Item, error) {
	return s.apply(ctx, parentType, parentID, childType, childID, actor, models.ActionUnlink)
}

func (s *LinkageService) apply(ctx context.Context, parentType models.ItemType, parentID uuid.UUID, childType models.ItemType, childID uuid.UUID, actor, action string) (models.Item, error) {
	// Normalize so the NCR is always the parent
	if parentType != models.ItemTypeNCR {
		if childType != models.ItemTypeNCR {
			return nil, &UnsupportedLinkError{ParentType: parentType, ChildType: childType}
		}
		parentType, parentID, childType, childID = childType, childID, parentType, parentID
	}

	parent, err := s.records.store.Get(ctx, parentType, parentID)
	if err != nil {
		return nil, err
	}
	child, err := s.records.store.Get(ctx, childType, childID)
	if err != nil {
		return nil, err
	}

	ncr := parent.(*models.NCR)
	before, err := models.Clone(ncr)
	if err != nil {
		return nil, err
	}

	linking := action == models.ActionLink
	switch record := child.(type) {
	case *models.MRB:
		err = linkMRB(ncr, record, linking)
	case *models.CAPA:
		err = linkCAPA(ncr, record, linking)
	case *models.SCAR:
		err = linkSCAR(ncr, record, linking)
	default:
		err = &UnsupportedLinkError{ParentType: parentType, ChildType: childType}
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ncr.Touch(now)
	child.Touch(now)

	if err := s.records.store.UpdateAll(ctx, ncr, child); err != nil {
		return nil, err
	}

	if _, err := s.records.recorder.Record(ctx, action, actor, child.GetNumber(), before, ncr); err != nil {
		return nil, err
	}

	s.records.cacheSet(ctx, ncr)
	s.records.cacheSet(ctx, child)
	s.records.publishEvent(ctx, action, ncr, actor)

	return ncr, nil
}

func linkMRB(ncr *models.NCR, mrb *models.MRB, linking bool) error {
	if linking {
		if ncr.MRBNumber != "" && ncr.MRBNumber != mrb.Number {
			return &LinkConflictError{Number: ncr.Number, Existing: ncr.MRBNumber}
		}
		if mrb.SourceNCRNumber != "" && mrb.SourceNCRNumber != ncr.Number {
			return &LinkConflictError{Number: mrb.Number, Existing: mrb.SourceNCRNumber}
		}

		ncr.MRBNumber = mrb.Number
		mrb.SourceNCRNumber = ncr.Number
		if !contains(mrb.LinkedNCRNumbers, ncr.Number) {
			mrb.LinkedNCRNumbers = append(mrb.LinkedNCRNumbers, ncr.Number)
		}
		return nil
	}

	if ncr.MRBNumber != mrb.Number || mrb.SourceNCRNumber != ncr.Number {
		return &DanglingLinkError{
			ParentNumber: ncr.Number,
			ChildNumber:  mrb.Number,
			Detail:       "references do not point at each other",
		}
	}

	ncr.MRBNumber = ""
	mrb.SourceNCRNumber = ""
	mrb.LinkedNCRNumbers = remove(mrb.LinkedNCRNumbers, ncr.Number)
	return nil
}

func linkCAPA(ncr *models.NCR, capa *models.CAPA, linking bool) error {
	if linking {
		if ncr.CAPANumber != "" && ncr.CAPANumber != capa.Number {
			return &LinkConflictError{Number: ncr.Number, Existing: ncr.CAPANumber}
		}
		if capa.SourceNCRID != "" && capa.SourceNCRID != ncr.ID.String() {
			return &LinkConflictError{Number: capa.Number, Existing: capa.SourceNCRID}
		}

		ncr.CAPANumber = capa.Number
		capa.SourceNCRID = ncr.ID.String()
		return nil
	}

	if ncr.CAPANumber != capa.Number || capa.SourceNCRID != ncr.ID.String() {
		return &DanglingLinkError{
			ParentNumber: ncr.Number,
			ChildNumber:  capa.Number,
			Detail:       "references do not point at each other",
		}
	}

	ncr.CAPANumber = ""
	capa.SourceNCRID = ""
	return nil
}

// linkSCAR only writes the SCAR side; the NCR schema carries no supplier
// request reference
func linkSCAR(ncr *models.NCR, scar *models.SCAR, linking bool) error {
	if linking {
		if scar.SourceNCRNumber != "" && scar.SourceNCRNumber != ncr.Number {
			return &LinkConflictError{Number: scar.Number, Existing: scar.SourceNCRNumber}
		}
		scar.SourceNCRNumber = ncr.Number
		return nil
	}

	if scar.SourceNCRNumber != ncr.Number {
		return &DanglingLinkError{
			ParentNumber: ncr.Number,
			ChildNumber:  scar.Number,
			Detail:       "supplier request references a different record",
		}
	}

	scar.SourceNCRNumber = ""
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func remove(values []string, target string) []string {
	result := values[:0]
	for _, v := range values {
		if v != target {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
