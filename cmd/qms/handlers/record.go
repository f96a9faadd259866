package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/middleware"
	"github.com/forgeline/qms/cmd/qms/service"
	"github.com/forgeline/qms/common/models"
)

// RecordHandler handles record lifecycle requests
type RecordHandler struct {
	records *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(records *service.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// parseItemType resolves the :type path parameter
func parseItemType(c echo.Context) (models.ItemType, error) {
	itemType := models.ItemType(c.Param("type"))
	switch itemType {
	case models.ItemTypeNCR, models.ItemTypeMRB, models.ItemTypeCAPA, models.ItemTypeSCAR:
		return itemType, nil
	}
	return "", fmt.Errorf("unknown record type: %s", c.Param("type"))
}

// parseRecordID resolves the :id path parameter
func parseRecordID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// CreateRecord creates a new quality record
// POST /api/v1/records/:type
func (h *RecordHandler) CreateRecord(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	item, err := models.NewItem(itemType)
	if err != nil {
		return badRequest(c, err)
	}
	if err := c.Bind(item); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}

	created, err := h.records.Create(c.Request().Context(), item, actor)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// GetRecord retrieves a record by ID
// GET /api/v1/records/:type/:id
func (h *RecordHandler) GetRecord(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	item, err := h.records.Get(c.Request().Context(), itemType, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// GetRecordByNumber retrieves a record by its human-readable number
// GET /api/v1/records/:type/number/:number
func (h *RecordHandler) GetRecordByNumber(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	item, err := h.records.GetByNumber(c.Request().Context(), itemType, c.Param("number"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// ListRecords lists records of one type, most recently updated first
// GET /api/v1/records/:type?limit=50
func (h *RecordHandler) ListRecords(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return badRequest(c, fmt.Errorf("invalid limit: %s", raw))
		}
		limit = parsed
	}

	items, err := h.records.List(c.Request().Context(), itemType, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"records": items,
		"count":   len(items),
	})
}

// UpdateRecord applies a JSON merge patch to a record's editable fields.
// The expectedVersion query parameter carries the version the caller last
// observed; zero skips the pre-check.
// PATCH /api/v1/records/:type/:id?expectedVersion=3
func (h *RecordHandler) UpdateRecord(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest(c, fmt.Errorf("failed to read request body: %w", err))
	}
	if !json.Valid(patch) {
		return badRequest(c, fmt.Errorf("request body is not valid JSON"))
	}

	var expectedVersion int64
	if raw := c.QueryParam("expectedVersion"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			return badRequest(c, fmt.Errorf("invalid expectedVersion: %s", raw))
		}
		expectedVersion = parsed
	}

	item, err := h.records.Update(c.Request().Context(), itemType, id, patch, actor, expectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// transitionRequest is the body of a transition call. ExpectedVersion is the
// version the caller last observed; zero skips the pre-check and relies on
// the store's own version comparison.
type transitionRequest struct {
	TargetStatus    models.Status `json:"targetStatus"`
	Reason          string        `json:"reason,omitempty"`
	ExpectedVersion int64         `json:"expectedVersion,omitempty"`
}

// TransitionRecord moves a record to a target status
// POST /api/v1/records/:type/:id/transition
func (h *RecordHandler) TransitionRecord(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}
	if req.TargetStatus == "" {
		return badRequest(c, fmt.Errorf("targetStatus is required"))
	}

	item, err := h.records.Transition(c.Request().Context(), itemType, id, req.TargetStatus, actor, req.Reason, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// GetProgress derives milestone progress for a status
// GET /api/v1/progress/:type/:status
func (h *RecordHandler) GetProgress(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	progress := service.GetProgress(itemType, models.Status(c.Param("status")))
	return c.JSON(http.StatusOK, progress)
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": err.Error(),
	})
}
