package connectivity

import "time"

// LinkState is the network association state.
type LinkState string

const (
	LinkDown LinkState = "down"
	LinkUp   LinkState = "up"
)

// SessionState is the broker session state.
//
//	disconnected → connecting → subscribing → connected
//	      ↑______________|____________|___________|   (failure or loss)
type SessionState string

const (
	SessionDisconnected SessionState = "disconnected"
	SessionConnecting   SessionState = "connecting"
	SessionSubscribing  SessionState = "subscribing"
	SessionConnected    SessionState = "connected"
)

// Message is one inbound payload handed from the transport to the loop.
type Message struct {
	Topic    string
	Payload  []byte
	Received time.Time
}

// Status is a point-in-time view of connectivity.
type Status struct {
	Link    LinkState    `json:"link"`
	Session SessionState `json:"session"`

	// Sessions counts sessions that reached connected.
	Sessions uint64 `json:"sessions"`

	// ConnectAttempts counts broker connection attempts.
	ConnectAttempts uint64 `json:"connect_attempts"`

	// LinkAttempts counts association attempts.
	LinkAttempts uint64 `json:"link_attempts"`

	// Dropped counts inbound messages discarded because the session was
	// down or the inbox was full.
	Dropped uint64 `json:"dropped"`

	LastError string `json:"last_error,omitempty"`
}
