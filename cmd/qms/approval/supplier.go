package approval

import (
	"fmt"

	"github.com/forgeline/qms/common/models"
)

// RecordSupplierResponse stores the supplier's formal reply. A response is
// accepted once the request has been issued and before review begins.
func RecordSupplierResponse(s *models.SCAR, response models.SupplierResponse) error {
	status := s.GetStatus()
	if status != models.SCARStatusIssued && status != models.SCARStatusSupplierResponse {
		return &ResponseStageError{SCARNumber: s.Number, Status: status}
	}

	s.SupplierResponse = &response
	return nil
}

// SetReviewStatus records the buyer-side verdict on the supplier's response.
// Only meaningful while the request is under review.
func SetReviewStatus(s *models.SCAR, verdict models.ReviewStatus) error {
	switch verdict {
	case models.ReviewApproved, models.ReviewRejected, models.ReviewPendingInfo:
	default:
		return fmt.Errorf("invalid review status %q", verdict)
	}

	if s.GetStatus() != models.SCARStatusReview {
		return &ReviewStageError{SCARNumber: s.Number, Status: s.GetStatus()}
	}

	s.ReviewStatus = verdict
	return nil
}
