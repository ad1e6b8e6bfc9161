// Package queue carries retrieval (purchase) jobs over RabbitMQ: the API
// publishes them durably and a long-lived consumer applies them to the
// persisted ticket stock with at-least-once semantics.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/ticket-marketplace/internal/model"
)

// ErrInvalidRequest marks a job that can never succeed: malformed JSON, a
// bad event reference or a non-positive quantity.  Such jobs are
// dead-lettered instead of redelivered.
var ErrInvalidRequest = errors.New("invalid retrieval request")

// RetrievalJob is the wire envelope placed on the retrieval queue.
type RetrievalJob struct {
	EventID  string `json:"eventId"`
	Quantity int    `json:"quantity"`
}

// Validate checks the job before it is published or processed.
func (j RetrievalJob) Validate() error {
	if _, err := model.ParseEventID(j.EventID); err != nil {
		return fmt.Errorf("%w: event id %q", ErrInvalidRequest, j.EventID)
	}
	if j.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidRequest)
	}
	return nil
}

// EventKey returns the numeric event id.  Call Validate first.
func (j RetrievalJob) EventKey() uint64 {
	id, _ := model.ParseEventID(j.EventID)
	return id
}

// DecodeRetrievalJob parses and validates a message body.
func DecodeRetrievalJob(body []byte) (RetrievalJob, error) {
	var j RetrievalJob
	if err := json.Unmarshal(body, &j); err != nil {
		return RetrievalJob{}, fmt.Errorf("%w: unmarshal: %v", ErrInvalidRequest, err)
	}
	if err := j.Validate(); err != nil {
		return RetrievalJob{}, err
	}
	return j, nil
}
