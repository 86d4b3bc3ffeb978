package actuator

import "errors"

var (
	// ErrUnknownDriver is returned by New for an unsupported driver name.
	ErrUnknownDriver = errors.New("actuator: unknown driver")

	// ErrInvalidServo is returned for an unusable servo configuration.
	ErrInvalidServo = errors.New("actuator: invalid servo configuration")

	// ErrExportTimeout is returned when the kernel does not create the
	// PWM channel directory after export.
	ErrExportTimeout = errors.New("actuator: pwm channel did not appear after export")

	// ErrClosed is returned by SetAngle after Close.
	ErrClosed = errors.New("actuator: closed")
)
