package actuator

import "sync"

// Simulated is an in-memory actuator for development and tests.
type Simulated struct {
	mu     sync.Mutex
	angle  int
	moves  int
	closed bool
	logger Logger
}

// NewSimulated creates a simulated actuator at angle 0.
func NewSimulated(logger Logger) *Simulated {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Simulated{logger: logger}
}

// SetAngle records the clamped angle. Repeating the current angle is not a move.
func (s *Simulated) SetAngle(deg int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	deg = Clamp(deg)
	if s.moves > 0 && deg == s.angle {
		return nil
	}
	s.angle = deg
	s.moves++
	s.logger.Debug("simulated actuator moved", "angle", deg)
	return nil
}

// Angle returns the last commanded angle.
func (s *Simulated) Angle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// Moves returns how many times the angle actually changed.
func (s *Simulated) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// Close marks the actuator closed.
func (s *Simulated) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
