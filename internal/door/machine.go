package door

import (
	"time"
)

// Hold time bounds. Overrides outside this range are ignored.
const (
	MinOpenDuration = 500 * time.Millisecond
	MaxOpenDuration = 5000 * time.Millisecond
)

// Actuator moves the latch. SetAngle must be idempotent and synchronous.
type Actuator interface {
	SetAngle(deg int) error
}

// Publisher carries boundary events to the bus with retained delivery.
// PublishState must not block.
type Publisher interface {
	PublishState(event Event)
}

// Observer is notified of every transition. It runs on the control loop
// and must not block.
type Observer func(Transition)

// Logger defines the logging interface used by the machine.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Positions are the actuator angles for the two ends of travel.
type Positions struct {
	Closed int
	Open   int
}

// Config holds the timing and travel of one door.
type Config struct {
	// OpenDuration is the initial hold time (500ms-5000ms).
	OpenDuration time.Duration

	// Cooldown is the dead time after every close. Fixed for the machine's lifetime.
	Cooldown time.Duration

	Positions Positions
}

// Machine owns the door state and timing.
//
// Thread Safety:
//   - Not safe for concurrent use. All methods must be called from the
//     single control loop that owns the machine.
type Machine struct {
	state State

	// mark is the monotonic time the current state was entered.
	mark time.Time

	// openDuration is read on every Holding tick, so an override accepted
	// mid-hold shortens or extends the current hold.
	openDuration time.Duration
	cooldown     time.Duration

	positions Positions
	actuator  Actuator
	publisher Publisher
	observer  Observer
	logger    Logger

	cycles    uint64
	lastEvent Event
}

// NewMachine creates a machine in the Idle state.
//
// The actuator is not moved; callers drive it to the closed position at
// startup with Park.
func NewMachine(cfg Config, actuator Actuator, publisher Publisher) (*Machine, error) {
	if !ValidOpenDuration(cfg.OpenDuration) {
		return nil, ErrInvalidOpenDuration
	}
	if cfg.Cooldown < 0 {
		return nil, ErrInvalidCooldown
	}
	if actuator == nil {
		return nil, ErrNoActuator
	}
	if publisher == nil {
		return nil, ErrNoPublisher
	}

	return &Machine{
		state:        StateIdle,
		openDuration: cfg.OpenDuration,
		cooldown:     cfg.Cooldown,
		positions:    cfg.Positions,
		actuator:     actuator,
		publisher:    publisher,
		logger:       noopLogger{},
	}, nil
}

// ValidOpenDuration reports whether d is an acceptable hold time.
func ValidOpenDuration(d time.Duration) bool {
	return d >= MinOpenDuration && d <= MaxOpenDuration
}

// SetLogger sets the logger. A nil logger disables logging.
func (m *Machine) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// SetObserver registers the transition observer. Nil removes it.
func (m *Machine) SetObserver(observer Observer) {
	m.observer = observer
}

// Park drives the actuator to the closed position without changing state.
func (m *Machine) Park() error {
	return m.actuator.SetAngle(m.positions.Closed)
}

// RequestOpen starts a cycle if the door is Idle.
//
// In any other state the call is a no-op: requests are never queued, so at
// most one physical cycle is in flight. Returns true if a cycle started.
func (m *Machine) RequestOpen(now time.Time) bool {
	if m.state != StateIdle {
		return false
	}

	m.advance(now)
	m.emit(EventOpening)
	return true
}

// Tick advances time-based transitions. It never blocks beyond the
// actuator write performed on the Opening and Closing boundaries.
func (m *Machine) Tick(now time.Time) {
	switch m.state {
	case StateOpening:
		m.drive(m.positions.Open)
		m.advance(now)

	case StateHolding:
		if now.Sub(m.mark) >= m.openDuration {
			m.advance(now)
		}

	case StateClosing:
		m.drive(m.positions.Closed)
		m.emit(EventClosed)
		m.cycles++
		m.advance(now)

	case StateCooldown:
		if now.Sub(m.mark) >= m.cooldown {
			m.advance(now)
			m.emit(EventIdle)
		}

	case StateIdle:
	}
}

// SetOpenDuration replaces the hold time. It takes effect on the next tick,
// including the remainder of a hold in progress.
// Values outside 500ms-5000ms are ignored; returns whether d was applied.
func (m *Machine) SetOpenDuration(d time.Duration) bool {
	if !ValidOpenDuration(d) {
		return false
	}
	m.openDuration = d
	return true
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// OpenDuration returns the current hold time.
func (m *Machine) OpenDuration() time.Duration {
	return m.openDuration
}

// Cooldown returns the fixed cooldown.
func (m *Machine) Cooldown() time.Duration {
	return m.cooldown
}

// Cycles returns the number of completed open/close cycles.
func (m *Machine) Cycles() uint64 {
	return m.cycles
}

// LastEvent returns the most recent boundary event emitted by the machine,
// or "" before the first one.
func (m *Machine) LastEvent() Event {
	return m.lastEvent
}

// Since returns how long the machine has been in its current state.
// Zero while Idle before the first cycle.
func (m *Machine) Since(now time.Time) time.Duration {
	if m.mark.IsZero() {
		return 0
	}
	return now.Sub(m.mark)
}

// advance moves to the successor of the current state.
func (m *Machine) advance(now time.Time) {
	from := m.state
	to := from.next()
	m.state = to
	m.mark = now

	if m.observer != nil {
		m.observer(Transition{
			From:  from,
			To:    to,
			At:    now,
			Hold:  m.openDuration,
			Cycle: m.cycles,
		})
	}
}

func (m *Machine) emit(event Event) {
	m.lastEvent = event
	m.publisher.PublishState(event)
}

// drive commands the actuator. A failed write is logged and the cycle
// continues so the door never stalls mid-cycle.
func (m *Machine) drive(deg int) {
	if err := m.actuator.SetAngle(deg); err != nil {
		m.logger.Warn("actuator write failed",
			"angle", deg,
			"state", m.state,
			"error", err,
		)
	}
}
