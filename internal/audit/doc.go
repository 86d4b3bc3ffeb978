// Package audit keeps the door's access log: every command decision and
// every state transition, stored in the access_events SQLite table.
//
// The log is for diagnostics only. Door behaviour never depends on it and
// a slow or failing database only costs dropped rows.
package audit
