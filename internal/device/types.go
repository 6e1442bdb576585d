package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// Controller is the device-control facade. Indices are zero-based and
// stable for the lifetime of the controller.
type Controller interface {
	DeviceCount() int
	DeviceName(device int) string
	ZoneCount(device int) int
	ZoneName(device, zone int) string
	LEDCount(device int) int
	LEDName(device, led int) string

	SetDeviceColor(device int, c spatial.Color) error
	SetZoneColor(device, zone int, c spatial.Color) error
	SetLEDColor(device, led int, c spatial.Color) error
}

// Zone is a named group of LEDs on a device.
type Zone struct {
	Name string `json:"name" yaml:"name"`
	LEDs int    `json:"leds" yaml:"leds"`
}

// Device describes one controllable lighting device.
type Device struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Protocol string `json:"protocol" yaml:"protocol"`
	Zones    []Zone `json:"zones,omitempty" yaml:"zones"`

	// LEDs is the total LED count. When zero it is the sum of zone sizes.
	LEDs int `json:"leds" yaml:"leds"`
}

// LEDTotal returns the number of individually addressable LEDs.
func (d Device) LEDTotal() int {
	if d.LEDs > 0 {
		return d.LEDs
	}
	n := 0
	for _, z := range d.Zones {
		n += z.LEDs
	}
	return n
}

// Inventory is the ordered list of devices. A device's index in the list
// is the DeviceIndex used by grid assignments.
type Inventory []Device

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks IDs are unique slugs and sizes are non-negative.
func (inv Inventory) Validate() error {
	seen := make(map[string]bool, len(inv))
	var errs []string
	for i, d := range inv {
		switch {
		case !idPattern.MatchString(d.ID):
			errs = append(errs, fmt.Sprintf("devices[%d].id %q must be a lowercase slug", i, d.ID))
		case seen[d.ID]:
			errs = append(errs, fmt.Sprintf("devices[%d].id %q is duplicated", i, d.ID))
		}
		seen[d.ID] = true
		if d.LEDs < 0 {
			errs = append(errs, fmt.Sprintf("devices[%d].leds must not be negative", i))
		}
		for j, z := range d.Zones {
			if z.LEDs < 0 {
				errs = append(errs, fmt.Sprintf("devices[%d].zones[%d].leds must not be negative", i, j))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInventory, strings.Join(errs, "; "))
	}
	return nil
}

// Summary is a read-only description of one device as the facade sees it.
type Summary struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	Zones []string `json:"zones"`
	LEDs  int      `json:"leds"`
}
