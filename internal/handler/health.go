package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness of the API and its database.
type HealthHandler struct {
	DB   Pinger
	Sims interface{ Len() int }
}

// Health returns 200 with the number of running simulations, or 503 when
// the database does not answer within two seconds.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "db": err.Error()})
		}
	}
	resp := echo.Map{"status": "ok"}
	if h.Sims != nil {
		resp["simulations"] = h.Sims.Len()
	}
	return c.JSON(http.StatusOK, resp)
}
