package audit

import "errors"

var (
	// ErrInvalidKind is returned when an event has an unknown kind.
	ErrInvalidKind = errors.New("audit: invalid event kind")

	// ErrQueueFull is returned by Record when the write queue is full.
	ErrQueueFull = errors.New("audit: queue full")
)
