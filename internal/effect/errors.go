package effect

import "errors"

// Domain errors for the effect package.
var (
	// ErrUnknownKind is returned when an effect name is not recognised.
	ErrUnknownKind = errors.New("effect: unknown kind")

	// ErrLayerNotFound is returned when a registry layer ID does not exist.
	ErrLayerNotFound = errors.New("effect: layer not found")

	// ErrLayerExists is returned when registering a duplicate layer ID.
	ErrLayerExists = errors.New("effect: layer already exists")

	// ErrEngineClosed is returned when starting an effect on a closed engine.
	ErrEngineClosed = errors.New("effect: engine closed")
)
