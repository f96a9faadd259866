package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/forgeline/qms/cmd/qms/container"
	"github.com/forgeline/qms/cmd/qms/handlers"
)

// RegisterDispositionRoutes registers vote, sign-off, 8D step and supplier
// response routes
func RegisterDispositionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewDispositionHandler(c.DispositionService)

	mrb := e.Group("/api/v1/records/mrb/:id")
	{
		mrb.POST("/votes", h.CastVote)
		mrb.GET("/quorum", h.GetQuorum)
		mrb.PUT("/disposition", h.SetMRBDisposition)
	}

	ncr := e.Group("/api/v1/records/ncr/:id")
	{
		ncr.PUT("/disposition", h.SetNCRDisposition)
		ncr.POST("/approvals", h.AddApproval)
	}

	e.POST("/api/v1/records/capa/:id/steps/:key", h.AdvanceStep)

	scar := e.Group("/api/v1/records/scar/:id")
	{
		scar.POST("/response", h.RecordSupplierResponse)
		scar.PUT("/review", h.SetReviewStatus)
	}
}
