package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/model"
	"github.com/iliyamo/ticket-marketplace/internal/repository"
)

// EventStore is the persistence the event endpoints need.
// *repository.EventRepo satisfies it.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context) ([]model.Event, error)
	GetTicketRecord(ctx context.Context, id uint64) (model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, q repository.EventSearchQuery) ([]model.Event, int64, error)
}

// Purger drops cached listings after a write.
type Purger interface {
	Purge(ctx context.Context) error
}

// EventHandler serves ticket record CRUD.  Listing and lookup are public;
// writes are reserved to vendors by the router.
type EventHandler struct {
	Events EventStore
	Cache  Purger
}

// eventReq is the body of create and update requests.
type eventReq struct {
	Title                 string `json:"title"`
	Vendor                string `json:"vendor"`
	Description           string `json:"description"`
	PriceCents            uint32 `json:"price_cents"`
	TotalTickets          int    `json:"total_tickets"`
	TicketReleaseRate     int    `json:"ticket_release_rate"`
	CustomerRetrievalRate int    `json:"customer_retrieval_rate"`
	MaxTicketCapacity     int    `json:"max_ticket_capacity"`
	ImageURL              string `json:"image_url"`
}

func (r eventReq) toModel() model.Event {
	return model.Event{
		Title:                   strings.TrimSpace(r.Title),
		Vendor:                  strings.TrimSpace(r.Vendor),
		Description:             r.Description,
		PriceCents:              r.PriceCents,
		TotalTickets:            r.TotalTickets,
		RemainingTickets:        r.TotalTickets,
		TicketReleaseRateMs:     r.TicketReleaseRate,
		CustomerRetrievalRateMs: r.CustomerRetrievalRate,
		MaxTicketCapacity:       r.MaxTicketCapacity,
		ImageURL:                strings.TrimSpace(r.ImageURL),
	}
}

// EventResponse is the public representation of a ticket record.
type EventResponse struct {
	ID                    uint64    `json:"id"`
	Title                 string    `json:"title"`
	Vendor                string    `json:"vendor"`
	Description           string    `json:"description,omitempty"`
	PriceCents            uint32    `json:"price_cents"`
	TotalTickets          int       `json:"total_tickets"`
	RemainingTickets      int       `json:"remaining_tickets"`
	TicketReleaseRate     int       `json:"ticket_release_rate"`
	CustomerRetrievalRate int       `json:"customer_retrieval_rate"`
	MaxTicketCapacity     int       `json:"max_ticket_capacity"`
	ImageURL              string    `json:"image_url,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func toEventResponse(e model.Event) EventResponse {
	return EventResponse{
		ID:                    e.ID,
		Title:                 e.Title,
		Vendor:                e.Vendor,
		Description:           e.Description,
		PriceCents:            e.PriceCents,
		TotalTickets:          e.TotalTickets,
		RemainingTickets:      e.RemainingTickets,
		TicketReleaseRate:     e.TicketReleaseRateMs,
		CustomerRetrievalRate: e.CustomerRetrievalRateMs,
		MaxTicketCapacity:     e.MaxTicketCapacity,
		ImageURL:              e.ImageURL,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

// ListEvents returns every ticket record under "items".
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list events: %v", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetEvent returns one ticket record.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := eventIDParam(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}
	e, err := h.Events.GetTicketRecord(c.Request().Context(), id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return errJSON(c, http.StatusNotFound, "event not found")
	}
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// CreateEvent stores a new ticket record with its full stock remaining.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	e := req.toModel()
	if err := e.Validate(); err != nil {
		return errJSON(c, http.StatusBadRequest, err.Error())
	}
	if err := h.Events.Create(c.Request().Context(), &e); err != nil {
		c.Logger().Errorf("create event: %v", err)
		return errJSON(c, http.StatusInternalServerError, "create event failed")
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// UpdateEvent replaces a ticket record.  Tickets already sold stay sold.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := eventIDParam(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	e := req.toModel()
	if err := e.Validate(); err != nil {
		return errJSON(c, http.StatusBadRequest, err.Error())
	}
	e.ID = id
	err = h.Events.Update(c.Request().Context(), &e)
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return errJSON(c, http.StatusNotFound, "event not found")
	case errors.Is(err, repository.ErrInsufficientStock):
		return errJSON(c, http.StatusConflict, "total_tickets below tickets already sold")
	case err != nil:
		c.Logger().Errorf("update event %d: %v", id, err)
		return errJSON(c, http.StatusInternalServerError, "update event failed")
	}
	h.purge(c)
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// DeleteEvent removes a ticket record.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := eventIDParam(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}
	err = h.Events.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return errJSON(c, http.StatusNotFound, "event not found")
	}
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "delete event failed")
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *EventHandler) purge(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(c.Request().Context()); err != nil {
		c.Logger().Warnf("purge event cache: %v", err)
	}
}
