package influxdb

import (
	"maps"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-door/internal/door"
)

// Measurement names.
const (
	MeasurementTransitions = "door_transitions"
	MeasurementCycles      = "door_cycles"
	MeasurementCommands    = "door_commands"
)

// WriteTransition records a state change. A transition into Cooldown
// also records the completed cycle.
func (c *Client) WriteTransition(t door.Transition) {
	c.write(transitionPoint(c.tags, t))
	if t.To == door.StateCooldown {
		c.write(cyclePoint(c.tags, t))
	}
}

// WriteCommand records one command decision. Reason is empty for
// accepted commands.
func (c *Client) WriteCommand(outcome, reason string, at time.Time) {
	c.write(commandPoint(c.tags, outcome, reason, at))
}

func transitionPoint(base map[string]string, t door.Transition) *write.Point {
	tags := maps.Clone(base)
	tags["state"] = string(t.To)

	return write.NewPoint(MeasurementTransitions, tags,
		map[string]any{
			"from":    string(t.From),
			"hold_ms": t.Hold.Milliseconds(),
		},
		at(t.At),
	)
}

func cyclePoint(base map[string]string, t door.Transition) *write.Point {
	return write.NewPoint(MeasurementCycles, maps.Clone(base),
		map[string]any{
			"hold_ms":     t.Hold.Milliseconds(),
			"cycle_count": int64(t.Cycle), // #nosec G115 -- cycle counts stay far below MaxInt64
		},
		at(t.At),
	)
}

func commandPoint(base map[string]string, outcome, reason string, when time.Time) *write.Point {
	tags := maps.Clone(base)
	tags["outcome"] = outcome
	if reason != "" {
		tags["reason"] = reason
	}

	return write.NewPoint(MeasurementCommands, tags,
		map[string]any{"count": 1},
		at(when),
	)
}

// at strips the monotonic reading; a zero time means now.
func at(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t.Round(0)
}
