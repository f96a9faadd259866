package service

import (
	"math"

	"github.com/forgeline/qms/common/models"
)

// Progress locates a status on its entity's milestone path
type Progress struct {
	StepIndex  int `json:"stepIndex"`
	TotalSteps int `json:"totalSteps"`
	Percent    int `json:"percent"`
}

// Fixed status to step-index tables per entity. Display-only derivation:
// unknown statuses map to step 0 rather than failing.
var progressSteps = map[models.ItemType]map[models.Status]int{
	models.ItemTypeNCR: {
		models.StatusDraft:                 0,
		models.StatusOpen:                  0,
		models.NCRStatusUnderReview:        1,
		models.NCRStatusPendingDisposition: 2,
		models.StatusClosed:                3,
	},
	models.ItemTypeMRB: {
		models.MRBStatusPendingReview:      0,
		models.MRBStatusInReview:           1,
		models.MRBStatusPendingDisposition: 2,
		models.MRBStatusApproved:           3,
		models.MRBStatusRejected:           3,
		models.StatusClosed:                4,
	},
	models.ItemTypeCAPA: {
		models.StatusDraft:                    0,
		models.StatusOpen:                     0,
		models.CAPAStatusInProgress:           1,
		models.CAPAStatusPendingReview:        2,
		models.CAPAStatusUnderInvestigation:   3,
		models.CAPAStatusImplementing:         4,
		models.CAPAStatusPendingVerification:  5,
		models.CAPAStatusCompleted:            6,
		models.CAPAStatusVerified:             7,
		models.StatusClosed:                   8,
	},
	models.ItemTypeSCAR: {
		models.StatusDraft:                0,
		models.SCARStatusIssued:           1,
		models.SCARStatusSupplierResponse: 2,
		models.SCARStatusReview:           3,
		models.StatusClosed:               4,
	},
}

var progressTotals = map[models.ItemType]int{
	models.ItemTypeNCR:  3,
	models.ItemTypeMRB:  4,
	models.ItemTypeCAPA: 8,
	models.ItemTypeSCAR: 4,
}

// GetProgress derives milestone progress for a status. Pure lookup, never
// errors.
func GetProgress(itemType models.ItemType, status models.Status) Progress {
	total := progressTotals[itemType]
	if total == 0 {
		return Progress{}
	}

	step := progressSteps[itemType][status]
	return Progress{
		StepIndex:  step,
		TotalSteps: total,
		Percent:    int(math.Round(float64(step) / float64(total) * 100)),
	}
}
