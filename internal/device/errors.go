package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrInvalidDevice) {
//	    // bad index
//	}
var (
	// ErrInvalidDevice is returned when a device index is out of range.
	ErrInvalidDevice = errors.New("device: invalid device index")

	// ErrInvalidZone is returned when a zone index is out of range.
	ErrInvalidZone = errors.New("device: invalid zone index")

	// ErrInvalidLED is returned when an LED index is out of range.
	ErrInvalidLED = errors.New("device: invalid led index")

	// ErrWriteFailed is returned when the controller fails to apply a colour.
	ErrWriteFailed = errors.New("device: write failed")

	// ErrInvalidInventory is returned when the device inventory is malformed.
	ErrInvalidInventory = errors.New("device: invalid inventory")

	// ErrNoPublisher is returned when a bus controller has no transport.
	ErrNoPublisher = errors.New("device: no publisher")
)
