package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/middleware"
	"github.com/iliyamo/ticket-marketplace/internal/model"
)

var errNoUser = errors.New("user_id missing from context")

// getUserID extracts the user id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		return v, nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	}
	return 0, errNoUser
}

// eventIDParam parses the :id path parameter as an event id.
func eventIDParam(c echo.Context) (uint64, error) {
	return model.ParseEventID(c.Param("id"))
}

func errJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}
