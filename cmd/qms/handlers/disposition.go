package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/middleware"
	"github.com/forgeline/qms/cmd/qms/service"
	"github.com/forgeline/qms/common/models"
)

// DispositionHandler handles vote, sign-off, 8D step and supplier requests
type DispositionHandler struct {
	dispositions *service.DispositionService
}

// NewDispositionHandler creates a new disposition handler
func NewDispositionHandler(dispositions *service.DispositionService) *DispositionHandler {
	return &DispositionHandler{dispositions: dispositions}
}

type castVoteRequest struct {
	Vote            models.MRBVote `json:"vote"`
	ExpectedVersion int64          `json:"expectedVersion,omitempty"`
}

// CastVote records a board member's vote on an MRB. The acting user is the
// voting member.
// POST /api/v1/records/mrb/:id/votes
func (h *DispositionHandler) CastVote(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.CastVote(c.Request().Context(), id, actor, req.Vote, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// GetQuorum returns the derived vote state of an MRB
// GET /api/v1/records/mrb/:id/quorum
func (h *DispositionHandler) GetQuorum(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	result, err := h.dispositions.Quorum(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

type mrbDispositionRequest struct {
	Decision        models.DispositionDecision `json:"decision"`
	Justification   string                     `json:"justification"`
	ExpectedVersion int64                      `json:"expectedVersion,omitempty"`
}

// SetMRBDisposition writes the board's decision
// PUT /api/v1/records/mrb/:id/disposition
func (h *DispositionHandler) SetMRBDisposition(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req mrbDispositionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.SetMRBDisposition(c.Request().Context(), id, actor, models.MRBDisposition{
		Decision:      req.Decision,
		Justification: req.Justification,
	}, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

type ncrDispositionRequest struct {
	Decision        models.DispositionDecision `json:"decision"`
	Justification   string                     `json:"justification"`
	ExpectedVersion int64                      `json:"expectedVersion,omitempty"`
}

// SetNCRDisposition writes the formal decision on a nonconformance
// PUT /api/v1/records/ncr/:id/disposition
func (h *DispositionHandler) SetNCRDisposition(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req ncrDispositionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.SetNCRDisposition(c.Request().Context(), id, actor, req.Decision, req.Justification, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

type approvalRequest struct {
	ExpectedVersion int64 `json:"expectedVersion,omitempty"`
}

// AddApproval appends the acting user's sign-off to an NCR disposition
// POST /api/v1/records/ncr/:id/approvals
func (h *DispositionHandler) AddApproval(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req approvalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.AddApproval(c.Request().Context(), id, actor, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

type advanceStepRequest struct {
	Status          models.StepStatus `json:"status"`
	ExpectedVersion int64             `json:"expectedVersion,omitempty"`
}

// AdvanceStep moves one 8D step of a CAPA forward by one stage
// POST /api/v1/records/capa/:id/steps/:key
func (h *DispositionHandler) AdvanceStep(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req advanceStepRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.AdvanceStep(c.Request().Context(), id, actor, c.Param("key"), req.Status, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

type supplierResponseRequest struct {
	Summary         string `json:"summary"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

// RecordSupplierResponse stores the supplier's formal reply on a SCAR. The
// acting user is the supplier contact submitting the response.
// POST /api/v1/records/scar/:id/response
func (h *DispositionHandler) RecordSupplierResponse(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req supplierResponseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.RecordSupplierResponse(c.Request().Context(), id, actor, models.SupplierResponse{
		RespondedBy: actor,
		RespondedAt: time.Now(),
		Summary:     req.Summary,
	}, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

type reviewRequest struct {
	ReviewStatus    models.ReviewStatus `json:"reviewStatus"`
	ExpectedVersion int64               `json:"expectedVersion,omitempty"`
}

// SetReviewStatus records the buyer-side verdict on a SCAR response
// PUT /api/v1/records/scar/:id/review
func (h *DispositionHandler) SetReviewStatus(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	item, err := h.dispositions.SetReviewStatus(c.Request().Context(), id, actor, req.ReviewStatus, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}
