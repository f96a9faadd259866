package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/container"
	"github.com/forgeline/qms/cmd/qms/handlers"
)

// RegisterRecordRoutes registers record lifecycle, audit and progress routes
func RegisterRecordRoutes(e *echo.Echo, c *container.Container) {
	recordHandler := handlers.NewRecordHandler(c.RecordService)
	auditHandler := handlers.NewAuditHandler(c.Recorder)

	records := e.Group("/api/v1/records/:type")
	{
		records.POST("", recordHandler.CreateRecord)              // POST   /api/v1/records/ncr
		records.GET("", recordHandler.ListRecords)                // GET    /api/v1/records/ncr?limit=50
		records.GET("/:id", recordHandler.GetRecord)              // GET    /api/v1/records/ncr/{id}
		records.PATCH("/:id", recordHandler.UpdateRecord)         // PATCH  /api/v1/records/ncr/{id}
		records.GET("/number/:number", recordHandler.GetRecordByNumber)
		records.POST("/:id/transition", recordHandler.TransitionRecord)
		records.GET("/:id/audit", auditHandler.QueryTrail)
	}

	e.GET("/api/v1/progress/:type/:status", recordHandler.GetProgress)
}
