package connectivity

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-door/internal/door"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/mqtt"
)

// Default retry delays.
const (
	DefaultLinkRetryDelay    = 500 * time.Millisecond
	DefaultSessionRetryDelay = time.Second
	DefaultInboxSize         = 4
)

// Pending is an operation started by a Link or Session and polled by the
// manager. Done is closed when it finishes; Error is read after that.
type Pending interface {
	Done() <-chan struct{}
	Error() error
}

// Link is the network association under the broker session.
type Link interface {
	// Up reports whether the network is usable right now. Must not block.
	Up() bool

	// Associate starts an association attempt. It returns nil when there is
	// nothing to do but wait for the network to come up on its own.
	Associate() Pending
}

// Session is the broker connection. *mqtt.Client satisfies it.
type Session interface {
	Connect() mqtt.Token
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) (mqtt.Token, error)
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
	SetOnDisconnect(callback func(err error))
}

// Logger defines the logging interface used by the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Config holds manager settings.
type Config struct {
	CommandTopic string
	StateTopic   string
	QoS          byte

	// LinkRetryDelay is the wait between association attempts.
	LinkRetryDelay time.Duration

	// SessionRetryDelay is the fixed wait after a failed connect or subscribe.
	SessionRetryDelay time.Duration

	// InboxSize bounds inbound messages awaiting the loop.
	InboxSize int
}

// Manager keeps the network link and broker session alive and moves
// payloads between the bus and the control loop.
//
// EnsureLink, EnsureSession, Publish, PublishState, PollInbound and Status
// never block and must all be called from the control loop goroutine.
// Transport callbacks only touch the inbox and atomic flags.
type Manager struct {
	cfg     Config
	link    Link
	session Session
	logger  Logger

	linkState   LinkState
	linkPending Pending
	linkNext    time.Time

	sessionState   SessionState
	sessionPending mqtt.Token
	sessionNext    time.Time

	// lost is set by the transport when an established connection drops.
	lost atomic.Bool

	// accepting gates inbound delivery; false whenever the session is not
	// fully established.
	accepting atomic.Bool

	inbox   chan Message
	dropped atomic.Uint64

	sessions        uint64
	connectAttempts uint64
	linkAttempts    uint64
	lastErr         error
}

// NewManager creates a manager with both link and session down.
func NewManager(cfg Config, link Link, session Session) (*Manager, error) {
	if link == nil || session == nil {
		return nil, ErrNoTransport
	}
	if cfg.CommandTopic == "" || cfg.StateTopic == "" {
		return nil, ErrNoTopic
	}
	if cfg.LinkRetryDelay <= 0 {
		cfg.LinkRetryDelay = DefaultLinkRetryDelay
	}
	if cfg.SessionRetryDelay <= 0 {
		cfg.SessionRetryDelay = DefaultSessionRetryDelay
	}
	if cfg.InboxSize < 1 {
		cfg.InboxSize = DefaultInboxSize
	}

	m := &Manager{
		cfg:          cfg,
		link:         link,
		session:      session,
		logger:       noopLogger{},
		linkState:    LinkDown,
		sessionState: SessionDisconnected,
		inbox:        make(chan Message, cfg.InboxSize),
	}

	session.SetOnDisconnect(func(_ error) {
		m.accepting.Store(false)
		m.lost.Store(true)
	})

	return m, nil
}

// SetLogger sets the logger. A nil logger disables logging.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// EnsureLink reports whether the network link is up, starting or polling
// an association attempt when it is not. Attempts repeat every
// LinkRetryDelay with no ceiling.
func (m *Manager) EnsureLink(now time.Time) bool {
	if m.linkPending != nil {
		select {
		case <-m.linkPending.Done():
			if err := m.linkPending.Error(); err != nil {
				m.lastErr = err
				m.logger.Warn("network association failed", "error", err)
			}
			m.linkPending = nil
		default:
			return false
		}
	}

	if m.link.Up() {
		if m.linkState != LinkUp {
			m.linkState = LinkUp
			m.logger.Info("network link up")
		}
		return true
	}

	if m.linkState == LinkUp {
		m.linkState = LinkDown
		m.logger.Warn("network link lost")
	}

	if now.Before(m.linkNext) {
		return false
	}
	m.linkNext = now.Add(m.cfg.LinkRetryDelay)
	m.linkAttempts++
	m.linkPending = m.link.Associate()
	return false
}

// EnsureSession reports whether the broker session is established,
// otherwise advancing the connect → subscribe sequence as far as the
// pending broker operations allow without waiting on them.
//
// Once the command subscription is acknowledged it publishes "boot" then
// "idle" retained on the state topic. Failures wait SessionRetryDelay and
// start over, indefinitely.
func (m *Manager) EnsureSession(now time.Time) bool {
	if m.lost.Swap(false) && m.sessionState != SessionDisconnected {
		m.fail(now, ErrSessionLost)
	}

	switch m.sessionState {
	case SessionConnected:
		if m.session.IsConnected() {
			return true
		}
		m.fail(now, ErrSessionLost)
		return false

	case SessionDisconnected:
		if now.Before(m.sessionNext) {
			return false
		}
		m.connectAttempts++
		m.sessionPending = m.session.Connect()
		m.sessionState = SessionConnecting
		m.logger.Debug("connecting to broker", "attempt", m.connectAttempts)
		return m.pollConnect(now)

	case SessionConnecting:
		return m.pollConnect(now)

	case SessionSubscribing:
		return m.pollSubscribe(now)
	}

	return false
}

func (m *Manager) pollConnect(now time.Time) bool {
	select {
	case <-m.sessionPending.Done():
	default:
		return false
	}

	if err := m.sessionPending.Error(); err != nil {
		m.fail(now, fmt.Errorf("%w: %w", mqtt.ErrConnectionFailed, err))
		return false
	}

	m.sessionState = SessionSubscribing
	m.sessionPending = nil
	return m.pollSubscribe(now)
}

// pollSubscribe issues the command subscription when none is pending and
// completes the session once it is acknowledged. A refused subscription is
// retried on the same connection after SessionRetryDelay.
func (m *Manager) pollSubscribe(now time.Time) bool {
	if !m.session.IsConnected() {
		m.fail(now, ErrSessionLost)
		return false
	}

	if m.sessionPending == nil {
		if now.Before(m.sessionNext) {
			return false
		}
		token, err := m.session.Subscribe(m.cfg.CommandTopic, m.cfg.QoS, m.receive)
		if err != nil {
			m.retrySubscribe(now, err)
			return false
		}
		m.sessionPending = token
	}

	select {
	case <-m.sessionPending.Done():
	default:
		return false
	}

	if err := m.sessionPending.Error(); err != nil {
		m.retrySubscribe(now, fmt.Errorf("%w: %w", mqtt.ErrSubscribeFailed, err))
		return false
	}

	m.sessionPending = nil
	m.sessionState = SessionConnected
	m.sessions++
	m.lastErr = nil
	m.accepting.Store(true)

	m.logger.Info("broker session established",
		"command_topic", m.cfg.CommandTopic,
		"sessions", m.sessions,
	)

	m.PublishState(door.EventBoot)
	m.PublishState(door.EventIdle)
	return true
}

func (m *Manager) retrySubscribe(now time.Time, err error) {
	m.sessionPending = nil
	m.sessionNext = now.Add(m.cfg.SessionRetryDelay)
	m.lastErr = err
	m.logger.Warn("command subscription failed", "topic", m.cfg.CommandTopic, "error", err)
}

// fail drops the session and schedules the next connect attempt.
func (m *Manager) fail(now time.Time, err error) {
	was := m.sessionState

	m.accepting.Store(false)
	m.sessionState = SessionDisconnected
	m.sessionPending = nil
	m.sessionNext = now.Add(m.cfg.SessionRetryDelay)
	m.lastErr = err

	m.logger.Warn("broker session down",
		"was", was,
		"retry_in", m.cfg.SessionRetryDelay,
		"error", err,
	)
}

// receive runs on the transport goroutine for every command-topic message.
func (m *Manager) receive(topic string, payload []byte) error {
	if !m.accepting.Load() {
		m.dropped.Add(1)
		return nil
	}

	msg := Message{
		Topic:    topic,
		Payload:  bytes.Clone(payload),
		Received: time.Now(),
	}

	select {
	case m.inbox <- msg:
		return nil
	default:
		m.dropped.Add(1)
		return ErrInboxFull
	}
}

// PollInbound returns the next inbound message, if any. It never blocks.
func (m *Manager) PollInbound() (Message, bool) {
	select {
	case msg := <-m.inbox:
		return msg, true
	default:
		return Message{}, false
	}
}

// Publish sends payload on topic without waiting for the broker.
func (m *Manager) Publish(topic string, payload []byte, retained bool) error {
	if m.sessionState != SessionConnected {
		return ErrNotConnected
	}
	return m.session.Publish(topic, payload, m.cfg.QoS, retained)
}

// PublishState publishes a boundary event retained on the state topic.
// Failures are logged; a controller without a session keeps cycling.
func (m *Manager) PublishState(event door.Event) {
	if err := m.Publish(m.cfg.StateTopic, []byte(event), true); err != nil {
		m.logger.Debug("state not published",
			"event", event,
			"error", err,
		)
	}
}

// Status returns the current connectivity view.
func (m *Manager) Status() Status {
	s := Status{
		Link:            m.linkState,
		Session:         m.sessionState,
		Sessions:        m.sessions,
		ConnectAttempts: m.connectAttempts,
		LinkAttempts:    m.linkAttempts,
		Dropped:         m.dropped.Load(),
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}
