package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/repository"
)

// SearchEvents filters the public listing.
//
// availability: "available" (default), "sold_out" or "any".
func (h *EventHandler) SearchEvents(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.EventSearchQuery{
		Title:        strings.TrimSpace(c.QueryParam("title")),
		Vendor:       strings.TrimSpace(c.QueryParam("vendor")),
		Availability: c.QueryParam("availability"),
		Page:         page,
		PageSize:     ps,
	}
	events, total, err := h.Events.Search(c.Request().Context(), q)
	if err != nil {
		c.Logger().Errorf("search events: %v", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}

	items := make([]EventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResponse(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}
