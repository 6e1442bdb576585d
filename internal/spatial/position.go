package spatial

import (
	"fmt"
	"math"
)

// Grid size envelope accepted by SetDimensions.
const (
	MaxWidth  = 10
	MaxHeight = 10
	MaxDepth  = 5
)

// Position is a zero-based grid coordinate.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// String returns the position as "(x,y,z)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Less orders positions by layer, then row, then column.
func (p Position) Less(o Position) bool {
	if p.Z != o.Z {
		return p.Z < o.Z
	}
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}

// Distance returns the effect distance between two positions. The z axis
// is weighted double so that layers read as further apart than neighbours
// on the same layer.
func (p Position) Distance(o Position) float32 {
	dx := float32(p.X - o.X)
	dy := float32(p.Y - o.Y)
	dz := float32(p.Z-o.Z) * 2
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// Dimensions is the extent of the grid along each axis.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	Depth  int `json:"depth" yaml:"depth"`
}

// DefaultDimensions returns the 3x3x3 grid used when nothing else is configured.
func DefaultDimensions() Dimensions {
	return Dimensions{Width: 3, Height: 3, Depth: 3}
}

// Validate reports whether d is within the supported envelope.
func (d Dimensions) Validate() error {
	if d.Width < 1 || d.Width > MaxWidth {
		return fmt.Errorf("%w: width %d not in [1,%d]", ErrInvalidDimensions, d.Width, MaxWidth)
	}
	if d.Height < 1 || d.Height > MaxHeight {
		return fmt.Errorf("%w: height %d not in [1,%d]", ErrInvalidDimensions, d.Height, MaxHeight)
	}
	if d.Depth < 1 || d.Depth > MaxDepth {
		return fmt.Errorf("%w: depth %d not in [1,%d]", ErrInvalidDimensions, d.Depth, MaxDepth)
	}
	return nil
}

// Contains reports whether p lies inside d.
func (d Dimensions) Contains(p Position) bool {
	return p.X >= 0 && p.X < d.Width &&
		p.Y >= 0 && p.Y < d.Height &&
		p.Z >= 0 && p.Z < d.Depth
}

// Volume returns the number of positions in d.
func (d Dimensions) Volume() int {
	return d.Width * d.Height * d.Depth
}

// MaxDistance is the normalising distance used by distance-based effects.
// It is the plain (unweighted) diagonal of the grid.
func (d Dimensions) MaxDistance() float32 {
	w, h, z := float64(d.Width), float64(d.Height), float64(d.Depth)
	return float32(math.Sqrt(w*w + h*h + z*z))
}

// String returns the dimensions as "WxHxD".
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Depth)
}
