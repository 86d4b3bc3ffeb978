package audit

import "time"

// Kind distinguishes command decisions from door transitions.
type Kind string

const (
	KindCommand    Kind = "command"
	KindTransition Kind = "transition"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCommand || k == KindTransition
}

// Command outcomes. Transition events use the entered state as outcome.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"

	// OutcomeIgnored marks a valid command that arrived mid-cycle.
	OutcomeIgnored = "ignored"
)

// Event is one row of the access log.
type Event struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Form    string `json:"form,omitempty"`
	HoldMs  int    `json:"hold_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
