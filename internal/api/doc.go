// Package api serves the door's read-only HTTP status API.
//
//	GET /api/v1/health   link, session and backend health (503 when degraded)
//	GET /api/v1/door     latest control loop snapshot
//	GET /api/v1/events   access log page (?kind=&limit=&offset=)
//
// There is no endpoint that opens the door; the command
// topic on the bus is the only way in. /events answers 404 when the
// access log is disabled.
//
// Thread Safety: All handlers are safe for concurrent use. Door state is
// read from the controller's atomic snapshot.
package api
