package spatial

import "errors"

// Domain errors for the spatial package.
var (
	// ErrInvalidDimensions is returned when a dimension is non-positive or
	// exceeds the supported envelope.
	ErrInvalidDimensions = errors.New("spatial: invalid dimensions")

	// ErrOutOfBounds is returned when a position lies outside the grid.
	ErrOutOfBounds = errors.New("spatial: position out of bounds")

	// ErrInvalidAssignment is returned when an assignment targets both a
	// zone and an LED, or has a negative device index.
	ErrInvalidAssignment = errors.New("spatial: invalid assignment")

	// ErrInvalidColor is returned when a colour string cannot be parsed.
	ErrInvalidColor = errors.New("spatial: invalid colour")
)
