package approval

import (
	"time"

	"github.com/forgeline/qms/common/models"
)

// ncrStageRank orders NCR statuses so "pending_disposition or later" checks
// read as comparisons
var ncrStageRank = map[models.Status]int{
	models.StatusDraft:                 0,
	models.StatusOpen:                  1,
	models.NCRStatusUnderReview:        2,
	models.NCRStatusPendingDisposition: 3,
	models.StatusClosed:                4,
}

// SetNCRDisposition writes the formal decision on a nonconformance. The
// disposition is only writable once the NCR has reached pending_disposition;
// an existing sign-off list is preserved across rewrites of the decision
// text.
func SetNCRDisposition(n *models.NCR, decision models.DispositionDecision, justification string) error {
	if ncrStageRank[n.GetStatus()] < ncrStageRank[models.NCRStatusPendingDisposition] {
		return &DispositionStageError{Number: n.Number, Status: n.GetStatus()}
	}

	if n.Disposition == nil {
		n.Disposition = &models.NCRDisposition{}
	}
	n.Disposition.Decision = decision
	n.Disposition.Justification = justification
	return nil
}

// AddApproval appends one sign-off to the NCR disposition. The list is
// ordered and append-only; each approver signs at most once. When the
// sign-off count reaches the required approver count, the approval date is
// stamped.
func AddApproval(n *models.NCR, actorID string, required int, now time.Time) error {
	if n.Disposition == nil {
		return &DispositionStageError{Number: n.Number, Status: n.GetStatus()}
	}

	for _, signoff := range n.Disposition.ApprovedBy {
		if signoff.ActorID == actorID {
			return &DuplicateSignoffError{NCRNumber: n.Number, ActorID: actorID}
		}
	}

	n.Disposition.ApprovedBy = append(n.Disposition.ApprovedBy, models.Signoff{
		ActorID:  actorID,
		SignedAt: now,
	})

	if len(n.Disposition.ApprovedBy) >= required && n.Disposition.ApprovalDate == nil {
		n.Disposition.ApprovalDate = &now
	}

	return nil
}
