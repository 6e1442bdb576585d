package layout

import "errors"

var (
	// ErrLayoutNotFound is returned when no layout has the given ID or name.
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrLayoutExists is returned when another layout already uses the name.
	ErrLayoutExists = errors.New("layout name already in use")

	// ErrInvalidLayout is returned for an empty name or invalid dimensions.
	ErrInvalidLayout = errors.New("invalid layout")
)
