package actuator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Export polling. The kernel creates pwmN asynchronously and udev may
// need a moment to fix its permissions.
const (
	exportWait     = time.Second
	exportInterval = 50 * time.Millisecond
)

// ServoConfig describes a servo on a Linux sysfs PWM channel.
type ServoConfig struct {
	// Chip is the pwmchip directory, e.g. /sys/class/pwm/pwmchip0.
	Chip    string
	Channel int

	// FrequencyHz is the PWM frequency; hobby servos expect 50.
	FrequencyHz int

	// MinPulse and MaxPulse are the pulse widths for 0° and 180°.
	MinPulse time.Duration
	MaxPulse time.Duration
}

func (c ServoConfig) validate() error {
	switch {
	case c.Chip == "":
		return fmt.Errorf("%w: chip is required", ErrInvalidServo)
	case c.Channel < 0:
		return fmt.Errorf("%w: channel must not be negative", ErrInvalidServo)
	case c.FrequencyHz <= 0:
		return fmt.Errorf("%w: frequency must be positive", ErrInvalidServo)
	case c.MinPulse <= 0 || c.MaxPulse <= c.MinPulse:
		return fmt.Errorf("%w: pulse range %v-%v", ErrInvalidServo, c.MinPulse, c.MaxPulse)
	case c.MaxPulse > c.period():
		return fmt.Errorf("%w: max pulse %v exceeds period %v", ErrInvalidServo, c.MaxPulse, c.period())
	}
	return nil
}

func (c ServoConfig) period() time.Duration {
	return time.Second / time.Duration(c.FrequencyHz)
}

// pulse returns the pulse width for deg, interpolated over the pulse range.
func (c ServoConfig) pulse(deg int) time.Duration {
	span := c.MaxPulse - c.MinPulse
	return c.MinPulse + span*time.Duration(Clamp(deg))/MaxAngle
}

// Servo drives a hobby servo through /sys/class/pwm.
//
// Thread Safety:
//   - Safe for concurrent use; writes are serialised.
type Servo struct {
	cfg    ServoConfig
	dir    string
	logger Logger

	mu      sync.Mutex
	angle   int
	written bool
	closed  bool
}

// OpenServo exports the PWM channel if needed, sets the period and
// enables output. The servo is not moved until the first SetAngle.
func OpenServo(cfg ServoConfig, logger Logger) (*Servo, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = noopLogger{}
	}

	s := &Servo{
		cfg:    cfg,
		dir:    filepath.Join(cfg.Chip, "pwm"+strconv.Itoa(cfg.Channel)),
		logger: logger,
	}

	if err := s.export(); err != nil {
		return nil, err
	}

	// duty_cycle must never exceed period, so clear it first.
	if err := s.write("duty_cycle", 0); err != nil {
		return nil, err
	}
	if err := s.write("period", cfg.period().Nanoseconds()); err != nil {
		return nil, err
	}
	if err := s.write("enable", 1); err != nil {
		return nil, err
	}

	logger.Info("servo ready",
		"chip", cfg.Chip,
		"channel", cfg.Channel,
		"period", cfg.period(),
	)
	return s, nil
}

func (s *Servo) export() error {
	if _, err := os.Stat(s.dir); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking pwm channel: %w", err)
	}

	exportPath := filepath.Join(s.cfg.Chip, "export")
	if err := os.WriteFile(exportPath, []byte(strconv.Itoa(s.cfg.Channel)), 0o600); err != nil {
		return fmt.Errorf("exporting pwm channel %d: %w", s.cfg.Channel, err)
	}

	deadline := time.Now().Add(exportWait)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(s.dir, "enable")); err == nil {
			return nil
		}
		time.Sleep(exportInterval)
	}
	return fmt.Errorf("%w: %s", ErrExportTimeout, s.dir)
}

// SetAngle moves the servo to the clamped angle. Repeating the last angle
// writes nothing.
func (s *Servo) SetAngle(deg int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	deg = Clamp(deg)
	if s.written && deg == s.angle {
		return nil
	}

	pulse := s.cfg.pulse(deg)
	if err := s.write("duty_cycle", pulse.Nanoseconds()); err != nil {
		return err
	}

	s.angle = deg
	s.written = true
	s.logger.Debug("servo moved", "angle", deg, "pulse", pulse)
	return nil
}

// Close disables PWM output. The channel stays exported.
func (s *Servo) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.write("enable", 0)
}

func (s *Servo) write(attr string, value int64) error {
	path := filepath.Join(s.dir, attr)
	if err := os.WriteFile(path, []byte(strconv.FormatInt(value, 10)), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
