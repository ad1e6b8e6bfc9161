package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/handler"
	"github.com/iliyamo/ticket-marketplace/internal/middleware"
	"github.com/iliyamo/ticket-marketplace/internal/model"
)

// RegisterVendor registers VENDOR-scoped endpoints: ticket record writes
// and simulation control.  Either handler may be nil.
func RegisterVendor(e *echo.Echo, ev *handler.EventHandler, sims *handler.SimulationHandler, jwtSecret string) {
	vendorOnly := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVendor),
	}

	if ev != nil {
		e.POST("/v1/events", ev.CreateEvent, vendorOnly...)
		e.PUT("/v1/events/:id", ev.UpdateEvent, vendorOnly...)
		e.DELETE("/v1/events/:id", ev.DeleteEvent, vendorOnly...)
	}

	if sims != nil {
		g := e.Group("/v1/simulations", vendorOnly...)
		g.POST("/start", sims.Start)
		g.POST("/stop", sims.Stop)
		g.GET("/logs", sims.Logs)
		g.GET("", sims.List)
		g.GET("/:id", sims.Get)
	}
}
