package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/middleware"
	"github.com/forgeline/qms/cmd/qms/service"
	"github.com/forgeline/qms/common/models"
)

// AttachmentHandler handles attachment metadata requests. File bytes live in
// the external blob collaborator; the engine only keeps metadata.
type AttachmentHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentHandler creates a new attachment handler
func NewAttachmentHandler(attachments *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

type addAttachmentRequest struct {
	FileName        string `json:"fileName"`
	Size            int64  `json:"size"`
	MimeType        string `json:"mimeType"`
	StorageURL      string `json:"storageUrl"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

// AddAttachment registers attachment metadata on a record
// POST /api/v1/records/:type/:id/attachments
func (h *AttachmentHandler) AddAttachment(c echo.Context) error {
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

	var req addAttachmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, fmt.Errorf("invalid request body: %w", err))
	}
	if req.FileName == "" || req.StorageURL == "" {
		return badRequest(c, fmt.Errorf("fileName and storageUrl are required"))
	}

	item, err := h.attachments.Add(c.Request().Context(), itemType, id, actor, models.Attachment{
		FileName:   req.FileName,
		Size:       req.Size,
		MimeType:   req.MimeType,
		StorageURL: req.StorageURL,
	}, req.ExpectedVersion)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// ListAttachments returns a record's attachment metadata
// GET /api/v1/records/:type/:id/attachments
func (h *AttachmentHandler) ListAttachments(c echo.Context) error {
	itemType, err := parseItemType(c)
	if err != nil {
		return badRequest(c, err)
	}

	id, err := parseRecordID(c)
	if err != nil {
		return badRequest(c, fmt.Errorf("invalid record id: %w", err))
	}

	attachments, err := h.attachments.List(c.Request().Context(), itemType, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"attachments": attachments,
		"count":       len(attachments),
	})
}
