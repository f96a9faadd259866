package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/audit"
	"github.com/forgeline/qms/common/models"
)

// AuditHandler serves audit trail queries
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// QueryTrail reads an item's audit trail in sequence order
// GET /api/v1/records/:type/:id/audit?action=transition&actor=alice&limit=100
func (h *AuditHandler) QueryTrail(c echo.Context) error {
	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	filter := models.AuditFilter{
		Action:  c.QueryParam("action"),
		ActorID: c.QueryParam("actor"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return badRequest(c, fmt.Errorf("invalid limit: %s", raw))
		}
		filter.Limit = parsed
	}

	entries, err := h.recorder.Query(c.Request().Context(), id, filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
