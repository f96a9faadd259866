package approval

import (
	"time"

	"github.com/forgeline/qms/common/models"
)

// stepRank orders the per-step status machine
var stepRank = map[models.StepStatus]int{
	models.StepPending:    0,
	models.StepInProgress: 1,
	models.StepCompleted:  2,
	models.StepVerified:   3,
}

// AdvanceStep moves one 8D step forward by exactly one stage. Step statuses
// are monotonic with no skipping: pending -> in_progress -> completed ->
// verified. Reaching completed stamps the step's completion date.
func AdvanceStep(c *models.CAPA, key string, target models.StepStatus, now time.Time) error {
	step := c.Step(key)
	if step == nil {
		return &UnknownStepError{CAPANumber: c.Number, Key: key}
	}

	targetRank, known := stepRank[target]
	if !known || targetRank != stepRank[step.Status]+1 {
		return &StepOrderError{
			CAPANumber: c.Number,
			Key:        key,
			From:       step.Status,
			To:         target,
		}
	}

	step.Status = target
	if target == models.StepCompleted {
		step.CompletedDate = &now
	}
	return nil
}
