package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/model"
	"github.com/iliyamo/ticket-marketplace/internal/simulation"
)

// Simulations is the registry surface the simulation endpoints drive.
// *simulation.Registry satisfies it.
type Simulations interface {
	Start(ctx context.Context, eventID string) error
	Stop(eventID string) error
	CollectLogs() ([]string, error)
	Status(eventID string) (simulation.Status, error)
	List() []simulation.Status
}

// SimulationHandler exposes start/stop/log endpoints over a registry.
type SimulationHandler struct {
	Sims Simulations
}

type simulationReq struct {
	EventID string `json:"eventId"`
}

// Start launches a rehearsal for the event in the body.
func (h *SimulationHandler) Start(c echo.Context) error {
	var req simulationReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := h.Sims.Start(c.Request().Context(), req.EventID); err != nil {
		return simulationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Simulation started for event " + req.EventID,
		"eventId": req.EventID,
	})
}

// Stop interrupts the rehearsal for the event in the body.
func (h *SimulationHandler) Stop(c echo.Context) error {
	var req simulationReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := h.Sims.Stop(req.EventID); err != nil {
		return simulationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Simulation stopped for event " + req.EventID,
		"eventId": req.EventID,
	})
}

// Logs returns the combined event log of every registered simulation.
func (h *SimulationHandler) Logs(c echo.Context) error {
	logs, err := h.Sims.CollectLogs()
	if err != nil {
		return simulationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"logs": logs})
}

// List returns the status of every registered simulation.
func (h *SimulationHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Sims.List()})
}

// Get returns one simulation's status.
func (h *SimulationHandler) Get(c echo.Context) error {
	st, err := h.Sims.Status(c.Param("id"))
	if err != nil {
		return simulationError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func simulationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidEventID):
		return errJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, simulation.ErrAlreadyRunning):
		return errJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, simulation.ErrNotFound), errors.Is(err, simulation.ErrNoActiveSimulations):
		return errJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, simulation.ErrInvalidPool):
		return errJSON(c, http.StatusUnprocessableEntity, err.Error())
	}
	c.Logger().Errorf("simulation: %v", err)
	return errJSON(c, http.StatusInternalServerError, "simulation failed")
}
