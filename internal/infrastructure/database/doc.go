// Package database opens the SQLite file that holds the door's access
// event log and applies its schema migrations.
//
// Migrations are passed in as an fs.FS; the binary embeds them from the
// top-level migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Files are named YYYYMMDD_HHMMSS_description.up.sql with an optional
// matching .down.sql. All queries use parameterised statements and the
// database file is created with 0600 permissions.
package database
