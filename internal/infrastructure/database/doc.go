// Package database manages the SQLite store behind saved layouts.
//
// It opens the database with WAL mode and a busy timeout, limits the pool to
// one connection, and applies embedded schema migrations:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files live at the root of the supplied fs.FS and are named
// YYYYMMDD_HHMMSS_description.up.sql with an optional .down.sql partner.
package database
