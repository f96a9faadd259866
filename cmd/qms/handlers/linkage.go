package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/middleware"
	"github.com/forgeline/qms/cmd/qms/service"
	"github.com/forgeline/qms/common/models"
)

// LinkageHandler handles record linking requests
type LinkageHandler struct {
	links *service.LinkageService
}

// NewLinkageHandler creates a new linkage handler
func NewLinkageHandler(links *service.LinkageService) *LinkageHandler {
	return &LinkageHandler{links: links}
}

type linkRequest struct {
	ChildType models.ItemType `json:"childType"`
	ChildID   uuid.UUID       `json:"childId"`
}

type linkOp func(ctx context.Context, parentType models.ItemType, parentID uuid.UUID, childType models.ItemType, childID uuid.UUID, actor string) (models.Item, error)

// Link connects two records bidirectionally
// POST /api/v1/records/:type/:id/links
func (h *LinkageHandler) Link(c echo.Context) error {
	return h.apply(c, h.links.Link)
}

// Unlink clears both sides of an existing link
// DELETE /api/v1/records/:type/:id/links
func (h *LinkageHandler) Unlink(c echo.Context) error {
	return h.apply(c, h.links.Unlink)
}

func (h *LinkageHandler) apply(c echo.Context, op linkOp) error {
	parentType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	parentID, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}
	if req.ChildType == "" || req.ChildID == uuid.Nil {
		return badRequest(c, fmt.Errorf("childType and childId are required"))
	}

	item, err := op(c.Request().Context(), parentType, parentID, req.ChildType, req.ChildID, actor)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}
