// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers, the simulation registry and the retrieval consumer to
// distinguish between different failure scenarios without inspecting
// driver errors.
package repository

import "errors"

// ErrEventNotFound is returned when no ticket record exists for the
// requested event. Handlers translate this into an HTTP 404 response and
// the retrieval consumer negatively acknowledges the job.
var ErrEventNotFound = errors.New("event not found")

// ErrInsufficientStock is returned when a retrieval asks for more tickets
// than the record has left. The stored stock is left unchanged.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")
