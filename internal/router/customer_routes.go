package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/handler"
	"github.com/iliyamo/ticket-marketplace/internal/middleware"
	"github.com/iliyamo/ticket-marketplace/internal/model"
)

// RegisterCustomer registers the purchase endpoint.  It requires a valid
// JWT with the CUSTOMER role and is rate limited per user.
func RegisterCustomer(e *echo.Echo, h *handler.RetrievalHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	}
	if limiter != nil {
		mw = append(mw, limiter)
	}
	e.POST("/v1/events/retrieve", h.Retrieve, mw...)
}
