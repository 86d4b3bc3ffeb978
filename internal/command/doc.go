// Package command authorises open requests received on the bus.
//
// Two payload forms are accepted on the command topic:
//
//	OPEN
//	{"cmd": "OPEN", "ms": 3000, "token": "SECRET1"}
//
// The literal is matched case-insensitively after trimming whitespace. The
// structured form is JSON with comments and trailing commas tolerated; keys
// match case-insensitively and unknown keys are ignored.
//
// When a token is configured the structured form must carry it. The literal
// bypasses the token unless Options.RequireTokenForLiteral is set; callers
// can detect that gap with Authorizer.LiteralBypassesToken.
//
// A requested hold time outside 500-5000 ms is dropped, not rejected.
//
// Rejections are reported with sentinel errors; Reason turns them into
// short labels for logs, metrics and the access log.
package command
