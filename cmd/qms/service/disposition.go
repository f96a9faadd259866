package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/qms/cmd/qms/approval"
	"github.com/forgeline/qms/common/models"
)

// DispositionService drives the vote, sign-off and step machinery on top of
// the record service. Each call is one logical mutation and produces exactly
// one audit entry.
type DispositionService struct {
	records              *RecordService
	requiredNCRApprovers int
}

// NewDispositionService creates the disposition service
func NewDispositionService(records *RecordService, requiredNCRApprovers int) *DispositionService {
	return &DispositionService{
		records:              records,
		requiredNCRApprovers: requiredNCRApprovers,
	}
}

// CastVote records a board member's vote on an MRB
func (s *DispositionService) CastVote(ctx context.Context, id uuid.UUID, memberID string, vote models.MRBVote, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeMRB, id, expectedVersion, models.ActionCastVote, memberID, string(vote), func(item models.Item) error {
		return approval.CastVote(item.(*models.MRB), memberID, vote, time.Now())
	})
}

// Quorum returns the derived vote state of an MRB without mutating it
func (s *DispositionService) Quorum(ctx context.Context, id uuid.UUID) (approval.QuorumResult, error) {
	item, err := s.records.Get(ctx, models.ItemTypeMRB, id)
	if err != nil {
		return approval.QuorumResult{}, err
	}
	return approval.EvaluateQuorum(item.(*models.MRB)), nil
}

// SetMRBDisposition writes the board's decision once the vote is binding
func (s *DispositionService) SetMRBDisposition(ctx context.Context, id uuid.UUID, actor string, disposition models.MRBDisposition, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeMRB, id, expectedVersion, models.ActionSetDisposition, actor, string(disposition.Decision), func(item models.Item) error {
		return approval.SetMRBDisposition(item.(*models.MRB), disposition)
	})
}

// SetNCRDisposition writes the formal decision on a nonconformance
func (s *DispositionService) SetNCRDisposition(ctx context.Context, id uuid.UUID, actor string, decision models.DispositionDecision, justification string, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeNCR, id, expectedVersion, models.ActionSetDisposition, actor, string(decision), func(item models.Item) error {
		return approval.SetNCRDisposition(item.(*models.NCR), decision, justification)
	})
}

// AddApproval appends one sign-off to an NCR disposition
func (s *DispositionService) AddApproval(ctx context.Context, id uuid.UUID, actor string, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeNCR, id, expectedVersion, models.ActionAddApproval, actor, "", func(item models.Item) error {
		return approval.AddApproval(item.(*models.NCR), actor, s.requiredNCRApprovers, time.Now())
	})
}

// AdvanceStep moves one 8D step of a CAPA forward by one stage
func (s *DispositionService) AdvanceStep(ctx context.Context, id uuid.UUID, actor, key string, target models.StepStatus, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeCAPA, id, expectedVersion, models.ActionAdvanceStep, actor, key, func(item models.Item) error {
		return approval.AdvanceStep(item.(*models.CAPA), key, target, time.Now())
	})
}

// RecordSupplierResponse stores the supplier's formal reply on a SCAR
func (s *DispositionService) RecordSupplierResponse(ctx context.Context, id uuid.UUID, actor string, response models.SupplierResponse, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeSCAR, id, expectedVersion, models.ActionSupplierResponse, actor, "", func(item models.Item) error {
		return approval.RecordSupplierResponse(item.(*models.SCAR), response)
	})
}

// SetReviewStatus records the buyer-side verdict on a SCAR response
func (s *DispositionService) SetReviewStatus(ctx context.Context, id uuid.UUID, actor string, verdict models.ReviewStatus, expectedVersion int64) (models.Item, error) {
	return s.records.Mutate(ctx, models.ItemTypeSCAR, id, expectedVersion, models.ActionReview, actor, string(verdict), func(item models.Item) error {
		return approval.SetReviewStatus(item.(*models.SCAR), verdict)
	})
}
