package spatial

import "fmt"

// None marks an unused zone or LED index.
const None = -1

// Target identifies what part of a device an assignment drives.
type Target string

const (
	TargetDevice Target = "device"
	TargetZone   Target = "zone"
	TargetLED    Target = "led"
)

// Assignment binds a device, one of its zones, or one of its LEDs to a grid
// position. Color is the colour most recently written to it.
type Assignment struct {
	DeviceIndex int   `json:"device_index"`
	ZoneIndex   int   `json:"zone_index"`
	LEDIndex    int   `json:"led_index"`
	Color       Color `json:"color"`
}

// DeviceAssignment targets the whole device.
func DeviceAssignment(device int, c Color) Assignment {
	return Assignment{DeviceIndex: device, ZoneIndex: None, LEDIndex: None, Color: c}
}

// ZoneAssignment targets a single zone of a device.
func ZoneAssignment(device, zone int, c Color) Assignment {
	return Assignment{DeviceIndex: device, ZoneIndex: zone, LEDIndex: None, Color: c}
}

// LEDAssignment targets a single LED of a device.
func LEDAssignment(device, led int, c Color) Assignment {
	return Assignment{DeviceIndex: device, ZoneIndex: None, LEDIndex: led, Color: c}
}

// Target reports which kind of target a is.
func (a Assignment) Target() Target {
	switch {
	case a.ZoneIndex >= 0:
		return TargetZone
	case a.LEDIndex >= 0:
		return TargetLED
	default:
		return TargetDevice
	}
}

// Validate checks that a targets at most one of zone and LED.
func (a Assignment) Validate() error {
	if a.DeviceIndex < 0 {
		return fmt.Errorf("%w: device index %d", ErrInvalidAssignment, a.DeviceIndex)
	}
	if a.ZoneIndex >= 0 && a.LEDIndex >= 0 {
		return fmt.Errorf("%w: zone and led both set", ErrInvalidAssignment)
	}
	if a.ZoneIndex < None || a.LEDIndex < None {
		return fmt.Errorf("%w: index below -1", ErrInvalidAssignment)
	}
	return nil
}

// SameTarget reports whether a and b drive the same device part.
func (a Assignment) SameTarget(b Assignment) bool {
	return a.DeviceIndex == b.DeviceIndex && a.ZoneIndex == b.ZoneIndex && a.LEDIndex == b.LEDIndex
}
