package door

import "time"

// State is the position of the door in its open/close cycle.
type State string

// The cycle is strict: Idle → Opening → Holding → Closing → Cooldown → Idle.
const (
	StateIdle     State = "idle"
	StateOpening  State = "opening"
	StateHolding  State = "holding"
	StateClosing  State = "closing"
	StateCooldown State = "cooldown"
)

// successor maps every state to the only state that may follow it.
var successor = map[State]State{
	StateIdle:     StateOpening,
	StateOpening:  StateHolding,
	StateHolding:  StateClosing,
	StateClosing:  StateCooldown,
	StateCooldown: StateIdle,
}

func (s State) next() State {
	return successor[s]
}

// Event is a boundary event published on the state topic.
// The vocabulary is fixed; Holding and Cooldown entries publish nothing.
type Event string

const (
	// EventBoot is published once per session establishment.
	EventBoot Event = "boot"

	// EventIdle is published when a cooldown ends, and after boot.
	EventIdle Event = "idle"

	// EventOpening is published when an open request is accepted.
	EventOpening Event = "opening"

	// EventClosed is published when the actuator is driven closed.
	EventClosed Event = "closed"
)

// Transition describes one state change, delivered to an Observer.
type Transition struct {
	From State
	To   State
	At   time.Time

	// Hold is the hold time in effect when the transition happened.
	Hold time.Duration

	// Cycle counts completed physical cycles, including this one once
	// the transition reaches Cooldown.
	Cycle uint64
}
