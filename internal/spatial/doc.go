// Package spatial provides the Spatial Grid for Lightscape.
//
// The grid is a bounded 3D lattice of positions. Each position can carry an
// ordered list of device assignments (a whole device, one zone of a device,
// or one LED of a device) together with the colour most recently written to
// it. One position may be marked as the user's reference point; effects
// measure distance from it.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          Grid (grid.go)                      │
//	│                                                              │
//	│  dimensions ─┐   labels ─┐   assignments   selection  user   │
//	│              │           │   map[Position]  *Position *Pos.  │
//	│              ▼           ▼                                   │
//	│   SetDimensions purges everything outside the new bounds     │
//	│                                                              │
//	│   mutations ──▶ pending events ──▶ unlock ──▶ subscribers    │
//	│                       ▲                                      │
//	│            Batch (batch.go) folds them into grid.updated     │
//	└──────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Position: zero-based (x, y, z) grid coordinate, usable as a map key
//   - Dimensions: grid extent, validated against MaxWidth/MaxHeight/MaxDepth
//   - Assignment: device/zone/LED target plus its current colour
//   - Color: 24-bit RGB value with "#rrggbb" text form
//   - Event: change notification delivered to subscribers
//   - Layout: value snapshot of a grid, used for persistence
//
// # Failure Policy
//
// Out-of-range positions, layers and indices are silent no-ops; accessors
// return zero values. Nothing in this package panics on bad input.
//
// # Thread Safety
//
// All Grid methods are safe for concurrent use. Subscribers are invoked
// after the grid lock is released, so they may call back into the grid.
package spatial
