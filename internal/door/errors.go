package door

import "errors"

// Domain-specific errors for door construction.
var (
	// ErrInvalidOpenDuration is returned when a hold time is outside 500ms-5000ms.
	ErrInvalidOpenDuration = errors.New("door: open duration out of range")

	// ErrInvalidCooldown is returned for a negative cooldown.
	ErrInvalidCooldown = errors.New("door: cooldown must not be negative")

	// ErrNoActuator is returned when the machine is built without an actuator.
	ErrNoActuator = errors.New("door: actuator is required")

	// ErrNoPublisher is returned when the machine is built without a publisher.
	ErrNoPublisher = errors.New("door: publisher is required")
)
