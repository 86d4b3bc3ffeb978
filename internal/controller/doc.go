// Package controller runs the door's single cooperative control loop.
//
// Every tick the loop, in order:
//
//  1. keeps the network link up,
//  2. keeps the broker session up (only once the link is up),
//  3. authorises at most one inbound command and requests an open,
//  4. advances the door machine.
//
// The loop goroutine is the only one that touches the door machine. The
// HTTP status API reads a Snapshot published through an atomic pointer,
// and the access log and telemetry sinks are fed without blocking.
package controller
