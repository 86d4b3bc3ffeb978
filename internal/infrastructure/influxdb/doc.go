// Package influxdb writes door telemetry to InfluxDB v2 using the
// official influxdb-client-go library.
//
// Three measurements are written, all tagged with site and door:
//
//	door_transitions  state tag, from field
//	door_cycles       hold_ms, cycle_count
//	door_commands     outcome and reason tags, count field
//
// Writes go through the non-blocking batched write API. Errors arrive
// asynchronously through the SetOnError callback. Telemetry is optional;
// Connect returns ErrDisabled when it is turned off.
package influxdb
