package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-door/internal/audit"
	"github.com/nerrad567/gray-logic-door/internal/command"
	"github.com/nerrad567/gray-logic-door/internal/connectivity"
	"github.com/nerrad567/gray-logic-door/internal/door"
)

// DefaultTickInterval is the loop period when none is configured.
const DefaultTickInterval = 10 * time.Millisecond

// ReasonBusy marks a valid open command that arrived mid-cycle.
const ReasonBusy = "busy"

// Connectivity is the part of connectivity.Manager the loop drives.
type Connectivity interface {
	EnsureLink(now time.Time) bool
	EnsureSession(now time.Time) bool
	PollInbound() (connectivity.Message, bool)
	Status() connectivity.Status
}

// Recorder receives access log events. Record must not block.
type Recorder interface {
	Record(event audit.Event) error
}

// Telemetry receives door metrics. Methods must not block.
type Telemetry interface {
	WriteTransition(t door.Transition)
	WriteCommand(outcome, reason string, at time.Time)
}

// Logger defines the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Config holds controller settings.
type Config struct {
	TickInterval time.Duration
}

// Controller is the cooperative control loop. Each Step keeps the link
// and session alive, handles at most one inbound command and advances
// the door.
//
// Thread Safety:
//   - Step and Run must only be called from one goroutine, which then
//     owns the door machine.
//   - Snapshot is safe for concurrent use.
type Controller struct {
	cfg     Config
	machine *door.Machine
	conn    Connectivity
	auth    *command.Authorizer
	logger  Logger

	recorder  Recorder
	telemetry Telemetry

	lastDecision *Decision
	snapshot     atomic.Pointer[Snapshot]
}

// New creates a controller and registers it as the machine's observer.
func New(cfg Config, machine *door.Machine, conn Connectivity, auth *command.Authorizer, logger Logger) (*Controller, error) {
	if machine == nil {
		return nil, ErrNoMachine
	}
	if conn == nil {
		return nil, ErrNoConnectivity
	}
	if auth == nil {
		return nil, ErrNoAuthorizer
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Controller{
		cfg:     cfg,
		machine: machine,
		conn:    conn,
		auth:    auth,
		logger:  logger,
	}
	machine.SetObserver(c.observe)
	c.publishSnapshot(time.Now())
	return c, nil
}

// SetRecorder sets the access log sink. Nil disables recording.
// Must be called before Run.
func (c *Controller) SetRecorder(r Recorder) {
	c.recorder = r
}

// SetTelemetry sets the metrics sink. Nil disables telemetry.
// Must be called before Run.
func (c *Controller) SetTelemetry(t Telemetry) {
	c.telemetry = t
}

// Run parks the door closed, then steps every TickInterval until ctx is
// cancelled. On exit the door is parked closed again.
func (c *Controller) Run(ctx context.Context) error {
	c.park()
	defer c.park()

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	c.logger.Info("control loop started", "tick", c.cfg.TickInterval)
	c.Step(time.Now())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("control loop stopping", "state", c.machine.State())
			return nil
		case <-ticker.C:
			c.Step(time.Now())
		}
	}
}

// Step runs one loop iteration at now.
func (c *Controller) Step(now time.Time) {
	if c.conn.EnsureLink(now) {
		c.conn.EnsureSession(now)
	}

	if msg, ok := c.conn.PollInbound(); ok {
		c.dispatch(now, msg)
	}

	c.machine.Tick(now)
	c.publishSnapshot(now)
}

// dispatch authorises one payload and, if accepted, requests an open.
// An accepted hold override is applied even when the door is busy, and
// counts against a hold already in progress.
func (c *Controller) dispatch(now time.Time, msg connectivity.Message) {
	d := Decision{At: now, Topic: msg.Topic}

	cmd, err := c.auth.Parse(msg.Topic, msg.Payload)
	switch {
	case err != nil:
		d.Outcome = audit.OutcomeRejected
		d.Reason = command.Reason(err)
		c.logger.Warn("command rejected",
			"topic", msg.Topic,
			"reason", d.Reason,
			"error", err,
		)

	default:
		d.Form = string(cmd.Form)
		if hold, ok := cmd.Hold(); ok && c.machine.SetOpenDuration(hold) {
			d.HoldMs = cmd.HoldMs
		}

		if c.machine.RequestOpen(now) {
			d.Outcome = audit.OutcomeAccepted
			c.logger.Info("door opening",
				"form", cmd.Form,
				"hold", c.machine.OpenDuration(),
			)
		} else {
			d.Outcome = audit.OutcomeIgnored
			d.Reason = ReasonBusy
			c.logger.Debug("open ignored mid-cycle", "state", c.machine.State())
		}
	}

	c.lastDecision = &d
	c.recordDecision(d)
}

func (c *Controller) recordDecision(d Decision) {
	if c.telemetry != nil {
		c.telemetry.WriteCommand(d.Outcome, d.Reason, d.At)
	}
	c.record(audit.Event{
		Kind:      audit.KindCommand,
		Outcome:   d.Outcome,
		Reason:    d.Reason,
		Topic:     d.Topic,
		Form:      d.Form,
		HoldMs:    d.HoldMs,
		CreatedAt: d.At,
	})
}

// observe runs on the loop for every machine transition.
func (c *Controller) observe(t door.Transition) {
	if c.telemetry != nil {
		c.telemetry.WriteTransition(t)
	}
	c.record(audit.Event{
		Kind:      audit.KindTransition,
		Outcome:   string(t.To),
		HoldMs:    int(t.Hold.Milliseconds()),
		CreatedAt: t.At,
	})
}

func (c *Controller) record(event audit.Event) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(event); err != nil {
		level := c.logger.Warn
		if errors.Is(err, audit.ErrQueueFull) {
			level = c.logger.Debug
		}
		level("access event dropped", "kind", event.Kind, "error", err)
	}
}

func (c *Controller) park() {
	if err := c.machine.Park(); err != nil {
		c.logger.Warn("parking door failed", "error", err)
	}
}

func (c *Controller) publishSnapshot(now time.Time) {
	s := &Snapshot{
		State:          c.machine.State(),
		InStateMs:      c.machine.Since(now).Milliseconds(),
		OpenDurationMs: c.machine.OpenDuration().Milliseconds(),
		CooldownMs:     c.machine.Cooldown().Milliseconds(),
		Cycles:         c.machine.Cycles(),
		LastEvent:      c.machine.LastEvent(),
		Connectivity:   c.conn.Status(),
		UpdatedAt:      now,
	}
	if c.lastDecision != nil {
		d := *c.lastDecision
		s.LastDecision = &d
	}
	c.snapshot.Store(s)
}

// Snapshot returns the state as of the last Step.
func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}
