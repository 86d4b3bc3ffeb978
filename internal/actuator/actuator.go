package actuator

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
)

// Angle limits of a hobby servo.
const (
	MinAngle = 0
	MaxAngle = 180
)

// Drivers selectable in configuration.
const (
	DriverPWM       = "pwm"
	DriverSimulated = "simulated"
)

// Actuator positions the latch. SetAngle is idempotent and synchronous.
type Actuator interface {
	SetAngle(deg int) error
	Close() error
}

// Logger defines the logging interface used by actuators.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Clamp limits deg to [MinAngle, MaxAngle].
func Clamp(deg int) int {
	if deg < MinAngle {
		return MinAngle
	}
	if deg > MaxAngle {
		return MaxAngle
	}
	return deg
}

// New builds the actuator selected by cfg.Driver.
func New(cfg config.ActuatorConfig, logger Logger) (Actuator, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	switch cfg.Driver {
	case DriverPWM:
		servo, err := OpenServo(ServoConfig{
			Chip:        cfg.PWM.Chip,
			Channel:     cfg.PWM.Channel,
			FrequencyHz: cfg.PWM.FrequencyHz,
			MinPulse:    time.Duration(cfg.PWM.MinPulseUs) * time.Microsecond,
			MaxPulse:    time.Duration(cfg.PWM.MaxPulseUs) * time.Microsecond,
		}, logger)
		if err != nil {
			return nil, err
		}
		return servo, nil
	case DriverSimulated:
		return NewSimulated(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
