// Package effect animates a spatial grid with procedural colour effects.
//
// Each tick the Engine reads a consistent Scene from the grid, computes a
// brightness factor per assigned position, maps it to a colour and writes
// it back with Grid.ApplyColors. Effects:
//
//	RadialFade    clamp01((1 - d/maxDist) * I)        needs user position
//	Wave          (sin(d - 3t) * 0.5 + 0.5) * I       needs user position
//	Ripple        max(0, 1 - |d - 2t|) * I            needs user position
//	LayerCascade  (sin(t + 0.5z) * 0.5 + 0.5) * I
//
// where d is the distance to the user position with z weighted double,
// maxDist is the grid diagonal, t is elapsed effect time and I is
// intensity/100. Elapsed time advances by the tick interval scaled by
// speed/50.
//
// A Registry holds several named layers; when attached, the engine follows
// whichever active layer was registered last.
package effect
