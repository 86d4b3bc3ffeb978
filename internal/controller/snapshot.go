package controller

import (
	"time"

	"github.com/nerrad567/gray-logic-door/internal/connectivity"
	"github.com/nerrad567/gray-logic-door/internal/door"
)

// Decision is the outcome of one inbound command.
type Decision struct {
	At      time.Time `json:"at"`
	Topic   string    `json:"topic"`
	Outcome string    `json:"outcome"`
	Reason  string    `json:"reason,omitempty"`
	Form    string    `json:"form,omitempty"`
	HoldMs  int       `json:"hold_ms,omitempty"`
}

// Snapshot is a read-only copy of the loop's view, published after every
// Step for other goroutines.
type Snapshot struct {
	State     door.State `json:"state"`
	InStateMs int64      `json:"in_state_ms"`

	OpenDurationMs int64  `json:"open_duration_ms"`
	CooldownMs     int64  `json:"cooldown_ms"`
	Cycles         uint64 `json:"cycles"`

	LastEvent    door.Event `json:"last_event,omitempty"`
	LastDecision *Decision  `json:"last_decision,omitempty"`

	Connectivity connectivity.Status `json:"connectivity"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
