package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-marketplace/internal/queue"
)

// Enqueuer accepts retrieval jobs.  *queue.Publisher satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.RetrievalJob) error
}

// RetrievalHandler turns customer purchase requests into queued jobs.
type RetrievalHandler struct {
	Queue Enqueuer
}

// Retrieve enqueues {"eventId","quantity"}.  202 means the broker has the
// job on disk; stock is decremented later by the consumer.
func (h *RetrievalHandler) Retrieve(c echo.Context) error {
	var job queue.RetrievalJob
	if err := c.Bind(&job); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	err := h.Queue.Enqueue(c.Request().Context(), job)
	switch {
	case err == nil:
		return c.JSON(http.StatusAccepted, echo.Map{
			"message":  "Ticket retrieval request accepted",
			"eventId":  job.EventID,
			"quantity": job.Quantity,
		})
	case errors.Is(err, queue.ErrInvalidRequest):
		return errJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, queue.ErrUnavailable):
		return errJSON(c, http.StatusServiceUnavailable, "retrieval queue unavailable, try again later")
	}
	c.Logger().Errorf("enqueue retrieval for event %s: %v", job.EventID, err)
	return errJSON(c, http.StatusInternalServerError, "enqueue failed")
}
