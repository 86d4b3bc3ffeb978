package command

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/nerrad567/gray-logic-door/internal/door"
)

// literalOpen is the bare command accepted without a structured body.
const literalOpen = "OPEN"

// Structured payload field names. Matching is case-insensitive.
const (
	fieldCmd   = "cmd"
	fieldMs    = "ms"
	fieldToken = "token"
)

// Action is what a command asks the door to do.
type Action string

// ActionOpen is the only action the door understands.
const ActionOpen Action = "open"

// Form records which payload shape a command arrived in.
type Form string

const (
	// FormLiteral is the bare OPEN payload.
	FormLiteral Form = "literal"

	// FormStructured is a JSON object payload.
	FormStructured Form = "structured"
)

// Command is an authorised request extracted from one payload.
type Command struct {
	Action Action
	Form   Form

	// HoldMs is the requested hold time in milliseconds. Zero when the
	// payload carried no ms field or its value was outside 500-5000.
	HoldMs int

	// Token is the token the payload carried, if any.
	Token string
}

// Hold returns the requested hold time and whether one was supplied.
func (c Command) Hold() (time.Duration, bool) {
	if c.HoldMs == 0 {
		return 0, false
	}
	return time.Duration(c.HoldMs) * time.Millisecond, true
}

// Options configures an Authorizer.
type Options struct {
	// Topic is the command channel. Payloads from any other topic are rejected.
	Topic string

	// Token is the shared secret structured commands must carry. Empty
	// disables token checks.
	Token string

	// RequireTokenForLiteral rejects the bare OPEN literal while a token
	// is configured. When false the literal bypasses the token check.
	RequireTokenForLiteral bool
}

// Authorizer turns raw bus payloads into authorised commands.
//
// Thread Safety:
//   - Safe for concurrent use; an Authorizer is immutable after construction.
type Authorizer struct {
	topic                  string
	token                  []byte
	requireTokenForLiteral bool
}

// NewAuthorizer creates an Authorizer for the given command topic.
func NewAuthorizer(opts Options) (*Authorizer, error) {
	if opts.Topic == "" {
		return nil, ErrNoTopic
	}

	a := &Authorizer{
		topic:                  opts.Topic,
		requireTokenForLiteral: opts.RequireTokenForLiteral,
	}
	if opts.Token != "" {
		a.token = []byte(opts.Token)
	}
	return a, nil
}

// TokenRequired reports whether structured commands must carry a token.
func (a *Authorizer) TokenRequired() bool {
	return len(a.token) > 0
}

// LiteralBypassesToken reports whether a token is configured but the bare
// OPEN literal is still accepted without one.
func (a *Authorizer) LiteralBypassesToken() bool {
	return a.TokenRequired() && !a.requireTokenForLiteral
}

// Parse authorises one payload received on topic.
//
// Accepted forms:
//   - the literal OPEN, case-insensitive, surrounding whitespace ignored
//   - a JSON object (comments and trailing commas tolerated) with a cmd
//     field containing OPEN, an optional ms field and an optional token
//
// Unknown fields are ignored and an out-of-range or non-integer ms is
// dropped without failing the command. A rejected payload returns one of
// the package's sentinel errors.
func (a *Authorizer) Parse(topic string, payload []byte) (Command, error) {
	if topic != a.topic {
		return Command{}, ErrWrongTopic
	}

	msg := bytes.TrimSpace(payload)

	if strings.EqualFold(string(msg), literalOpen) {
		if a.requireTokenForLiteral && a.TokenRequired() {
			return Command{}, ErrTokenMissing
		}
		return Command{Action: ActionOpen, Form: FormLiteral}, nil
	}

	fields, ok := decodeObject(msg)
	if !ok {
		return Command{}, ErrUnrecognized
	}

	return a.authorise(fields)
}

// authorise applies the structured schema to decoded fields.
func (a *Authorizer) authorise(fields map[string]json.RawMessage) (Command, error) {
	cmd, ok := stringField(fields, fieldCmd)
	if !ok {
		return Command{}, ErrMissingCmd
	}
	if !strings.Contains(strings.ToUpper(cmd), literalOpen) {
		return Command{}, ErrNotOpen
	}

	c := Command{Action: ActionOpen, Form: FormStructured}

	_, present := fields[fieldToken]
	token, isString := stringField(fields, fieldToken)
	if isString {
		c.Token = token
	}

	if a.TokenRequired() {
		if !present {
			return Command{}, ErrTokenMissing
		}
		if !isString || subtle.ConstantTimeCompare([]byte(token), a.token) != 1 {
			return Command{}, ErrTokenMismatch
		}
	}

	if ms, ok := intField(fields, fieldMs); ok && door.ValidOpenDuration(time.Duration(ms)*time.Millisecond) {
		c.HoldMs = int(ms)
	}

	return c, nil
}

// decodeObject parses msg as a JSON object, keying fields by lower-cased
// name. Exact lower-case keys win over differently-cased duplicates.
func decodeObject(msg []byte) (map[string]json.RawMessage, bool) {
	if len(msg) == 0 {
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(msg), &raw); err != nil || raw == nil {
		return nil, false
	}

	fields := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		lk := strings.ToLower(k)
		if _, seen := fields[lk]; seen && k != lk {
			continue
		}
		fields[lk] = v
	}
	return fields, true
}

// stringField returns fields[name] if it is a JSON string.
func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// intField returns fields[name] if it is an integral JSON number.
func intField(fields map[string]json.RawMessage, name string) (int64, bool) {
	raw, ok := fields[name]
	if !ok {
		return 0, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}
