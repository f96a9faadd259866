package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/container"
	"github.com/forgeline/qms/cmd/qms/handlers"
)

// RegisterLinkageRoutes registers link and attachment routes
func RegisterLinkageRoutes(e *echo.Echo, c *container.Container) {
	linkHandler := handlers.NewLinkageHandler(c.LinkageService)
	attachmentHandler := handlers.NewAttachmentHandler(c.AttachmentService)

	records := e.Group("/api/v1/records/:type/:id")
	{
		records.POST("/links", linkHandler.Link)
		records.DELETE("/links", linkHandler.Unlink)
		records.POST("/attachments", attachmentHandler.AddAttachment)
		records.GET("/attachments", attachmentHandler.ListAttachments)
	}
}
