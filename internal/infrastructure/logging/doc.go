// Package logging wraps log/slog for the door controller.
//
// Entries are JSON by default and text when logging.format is "text". Each
// one carries service=graylogic-door and the build version; subsystems log
// through Component so their entries carry component=<name>.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log the command token, Wi-Fi passphrase or broker password.
// Rejected commands are logged by reason, not by payload.
package logging
