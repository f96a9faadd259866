package statemachine

import (
	"github.com/forgeline/qms/cmd/qms/approval"
	"github.com/forgeline/qms/common/models"
)

// BuildFacts derives the values guard expressions reason about: quorum state
// for boards, sign-off counts for nonconformance dispositions, 8D step
// statuses, and supplier response presence. Guards only ever see this map and
// the record's JSON form, never the Go structs.
func BuildFacts(item models.Item, requiredNCRApprovers int) map[string]interface{} {
	facts := map[string]interface{}{
		"status": string(item.GetStatus()),
	}

	switch record := item.(type) {
	case *models.NCR:
		facts["hasDisposition"] = record.Disposition != nil && record.Disposition.Decision != ""
		facts["approvalCount"] = record.ApprovalCount()
		facts["requiredApprovals"] = requiredNCRApprovers

	case *models.MRB:
		result := approval.EvaluateQuorum(record)
		facts["votesCast"] = result.VotesCast
		facts["quorumRequired"] = result.QuorumRequired
		facts["quorumMet"] = result.QuorumMet
		facts["outcome"] = string(result.Outcome)
		facts["hasDisposition"] = record.Disposition != nil && record.Disposition.Decision != ""

	case *models.CAPA:
		for _, key := range models.StepKeys {
			status := models.StepPending
			if step := record.Step(key); step != nil {
				status = step.Status
			}
			facts[key+"Status"] = string(status)
		}
		facts["pendingSteps"] = len(record.PendingSteps())

	case *models.SCAR:
		facts["hasSupplierResponse"] = record.SupplierResponse != nil
		facts["reviewStatus"] = string(record.ReviewStatus)
	}

	return facts
}
