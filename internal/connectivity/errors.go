package connectivity

import "errors"

var (
	// ErrNotConnected is returned by Publish while no session is established.
	ErrNotConnected = errors.New("connectivity: session not established")

	// ErrInboxFull is reported for an inbound message dropped because the
	// loop has not drained earlier ones.
	ErrInboxFull = errors.New("connectivity: inbox full")

	// ErrSessionLost records a session that dropped after being established.
	ErrSessionLost = errors.New("connectivity: session lost")

	// ErrNoTransport is returned by NewManager when link or session is nil.
	ErrNoTransport = errors.New("connectivity: link and session are required")

	// ErrNoTopic is returned by NewManager when a topic is missing.
	ErrNoTopic = errors.New("connectivity: command and state topics are required")
)
