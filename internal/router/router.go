// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/ticket-marketplace/internal/handler"
	"github.com/iliyamo/ticket-marketplace/internal/middleware"
	"github.com/iliyamo/ticket-marketplace/internal/model"
)

// Deps is everything the route tree needs.  Cache and Limiter may be
// pass-through middleware when Redis is not configured.
type Deps struct {
	JWTSecret   string
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Events      *handler.EventHandler
	Simulations *handler.SimulationHandler
	Retrieval   *handler.RetrievalHandler
	Cache       echo.MiddlewareFunc
	Limiter     echo.MiddlewareFunc
}

// New returns an echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	if d.Health != nil {
		RegisterRoutes(e, d.Health)
	}
	if d.Auth != nil {
		RegisterAuth(e, d.Auth, d.JWTSecret)
	}
	if d.Events != nil {
		RegisterPublic(e, d.Events, d.Cache)
	}
	RegisterVendor(e, d.Events, d.Simulations, d.JWTSecret)
	if d.Retrieval != nil {
		RegisterCustomer(e, d.Retrieval, d.JWTSecret, d.Limiter)
	}
	return e
}

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers account endpoints.  Register, login, refresh and
// logout need no session; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVendor, model.RoleCustomer),
	)
}

// RegisterPublic registers the read-only event listing behind the
// response cache.
func RegisterPublic(e *echo.Echo, h *handler.EventHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/v1/events", h.ListEvents, mw...)
	e.GET("/v1/events/search", h.SearchEvents, mw...)
	e.GET("/v1/events/:id", h.GetEvent, mw...)
}
