// Package migrations embeds the event log schema into the binary.
package migrations

import "embed"

// FS holds the *.sql migration files, passed to database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
