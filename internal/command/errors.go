package command

import "errors"

// ErrNoTopic is returned by NewAuthorizer when no command topic is given.
var ErrNoTopic = errors.New("command: topic is required")

// Rejection reasons. Every rejected payload maps to exactly one of these;
// use errors.Is() to classify.
var (
	// ErrWrongTopic is returned for payloads that did not arrive on the command topic.
	ErrWrongTopic = errors.New("command: not the command topic")

	// ErrUnrecognized is returned for payloads that are neither the OPEN
	// literal nor a JSON object.
	ErrUnrecognized = errors.New("command: unrecognised payload")

	// ErrMissingCmd is returned for structured payloads without a string cmd field.
	ErrMissingCmd = errors.New("command: cmd field missing")

	// ErrNotOpen is returned when cmd does not request an open.
	ErrNotOpen = errors.New("command: cmd is not OPEN")

	// ErrTokenMissing is returned when a token is configured and the payload carries none.
	ErrTokenMissing = errors.New("command: token required")

	// ErrTokenMismatch is returned when the payload token differs from the configured one.
	ErrTokenMismatch = errors.New("command: token mismatch")
)

// Reason returns a short, log- and metric-friendly label for a rejection error.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWrongTopic):
		return "wrong_topic"
	case errors.Is(err, ErrUnrecognized):
		return "unrecognised"
	case errors.Is(err, ErrMissingCmd):
		return "missing_cmd"
	case errors.Is(err, ErrNotOpen):
		return "not_open"
	case errors.Is(err, ErrTokenMissing):
		return "token_missing"
	case errors.Is(err, ErrTokenMismatch):
		return "token_mismatch"
	default:
		return "error"
	}
}
