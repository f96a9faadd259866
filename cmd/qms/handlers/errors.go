package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/approval"
	"github.com/forgeline/qms/cmd/qms/service"
	"github.com/forgeline/qms/cmd/qms/statemachine"
	"github.com/forgeline/qms/common/repository"
	"github.com/forgeline/qms/common/validation"
)

// writeError maps engine errors to HTTP responses. Conflict-family errors
// carry a machine-readable reason code; stale writes additionally carry the
// current record so the caller can re-apply.
func writeError(c echo.Context, err error) error {
	var validationErr *validation.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  validationErr.Error(),
			"reason": "ValidationError",
			"fields": validationErr.Fields,
		})
	}

	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error":  notFound.Error(),
			"reason": "NotFound",
		})
	}

	var stale *repository.StaleWriteError
	if errors.As(err, &stale) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":           stale.Error(),
			"reason":          "StaleWriteConflict",
			"expectedVersion": stale.ExpectedVersion,
			"currentVersion":  stale.CurrentVersion,
			"current":         stale.Current,
		})
	}

	var guard *statemachine.GuardError
	if errors.As(err, &guard) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":  guard.Error(),
			"reason": "GuardFailed",
			"detail": guard.Reason,
		})
	}

	var invalid *statemachine.InvalidTransitionError
	if errors.As(err, &invalid) {
		return conflict(c, invalid, "InvalidTransition")
	}

	var terminal *statemachine.TerminalStateError
	if errors.As(err, &terminal) {
		return conflict(c, terminal, "TerminalStateViolation")
	}

	var duplicateVote *approval.DuplicateVoteError
	if errors.As(err, &duplicateVote) {
		return conflict(c, duplicateVote, "DuplicateVote")
	}

	var notAMember *approval.NotAMemberError
	if errors.As(err, &notAMember) {
		return conflict(c, notAMember, "NotAMember")
	}

	var voteClosed *approval.VoteClosedError
	if errors.As(err, &voteClosed) {
		return conflict(c, voteClosed, "VoteClosed")
	}

	var quorumPending *approval.QuorumPendingError
	if errors.As(err, &quorumPending) {
		return conflict(c, quorumPending, "QuorumNotMet")
	}

	var dispositionStage *approval.DispositionStageError
	if errors.As(err, &dispositionStage) {
		return conflict(c, dispositionStage, "DispositionNotWritable")
	}

	var duplicateSignoff *approval.DuplicateSignoffError
	if errors.As(err, &duplicateSignoff) {
		return conflict(c, duplicateSignoff, "DuplicateSignoff")
	}

	var stepOrder *approval.StepOrderError
	if errors.As(err, &stepOrder) {
		return conflict(c, stepOrder, "StepOrderViolation")
	}

	var unknownStep *approval.UnknownStepError
	if errors.As(err, &unknownStep) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error":  unknownStep.Error(),
			"reason": "NotFound",
		})
	}

	var responseStage *approval.ResponseStageError
	if errors.As(err, &responseStage) {
		return conflict(c, responseStage, "ResponseNotAccepted")
	}

	var reviewStage *approval.ReviewStageError
	if errors.As(err, &reviewStage) {
		return conflict(c, reviewStage, "NotUnderReview")
	}

	var dangling *service.DanglingLinkError
	if errors.As(err, &dangling) {
		return conflict(c, dangling, "DanglingLink")
	}

	var linkConflict *service.LinkConflictError
	if errors.As(err, &linkConflict) {
		return conflict(c, linkConflict, "LinkConflict")
	}

	var unsupportedLink *service.UnsupportedLinkError
	if errors.As(err, &unsupportedLink) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  unsupportedLink.Error(),
			"reason": "UnsupportedLink",
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": err.Error(),
	})
}

func conflict(c echo.Context, err error, reason string) error {
	return c.JSON(http.StatusConflict, map[string]interface{}{
		"error":  err.Error(),
		"reason": reason,
	})
}
