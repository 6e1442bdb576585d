// Package layout persists named grid layouts in SQLite.
//
// A saved layout is a full spatial.Layout (dimensions, labels, assignments
// with their colours, user position and the requirement flag) stored as a
// JSON column, with dimensions and assignment counts duplicated into plain
// columns for listing.
//
//	repo := layout.NewSQLiteRepository(db.DB)
//	saved, err := layout.SaveGrid(ctx, repo, grid, "desk", "")
//	...
//	err = layout.LoadInto(ctx, repo, grid, "desk")
//
// SQLiteRepository is safe for concurrent use.
package layout
