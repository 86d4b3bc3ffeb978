// Package connectivity keeps the controller on the network and on the
// broker, and moves payloads between the bus and the control loop.
//
// Both the link and the session are explicit state machines polled once
// per loop iteration. Nothing here waits on the network: connection,
// subscription and association attempts are started, then checked on
// later iterations, so the door keeps ticking through an outage.
//
//	link:    down ⇄ up
//	session: disconnected → connecting → subscribing → connected
//
// Failed attempts are retried after a fixed delay, forever. When a session
// is (re)established the manager publishes "boot" then "idle" retained on
// the state topic.
//
// Inbound messages arrive on transport goroutines and are queued in a
// small bounded inbox. Messages received while the session is not
// established, or while the inbox is full, are dropped and counted.
package connectivity
