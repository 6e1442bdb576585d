package device

import (
	"encoding/json"
	"fmt"

	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/mqtt"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// Publisher is the MQTT publishing interface used by BusController.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ColorCommand is the JSON payload sent to a protocol bridge.
type ColorCommand struct {
	DeviceID string         `json:"device_id"`
	Target   spatial.Target `json:"target"`
	Zone     *int           `json:"zone,omitempty"`
	LED      *int           `json:"led,omitempty"`
	Color    spatial.Color  `json:"color"`
	R        uint8          `json:"r"`
	G        uint8          `json:"g"`
	B        uint8          `json:"b"`
	Source   string         `json:"source"`
}

// BusController implements Controller over a static inventory by
// publishing colour commands to lightscape/command/{protocol}/{device_id}.
// Bridges subscribed to those topics drive the hardware.
type BusController struct {
	inv Inventory
	pub Publisher
	qos byte
}

// NewBusController creates a controller for inv publishing through pub.
// Colour frames are sent at QoS 0 and not retained.
func NewBusController(inv Inventory, pub Publisher) *BusController {
	cp := make(Inventory, len(inv))
	copy(cp, inv)
	return &BusController{inv: cp, pub: pub}
}

// SetQoS overrides the QoS used for colour commands.
func (b *BusController) SetQoS(qos byte) {
	b.qos = qos
}

func (b *BusController) device(d int) (Device, bool) {
	if d < 0 || d >= len(b.inv) {
		return Device{}, false
	}
	return b.inv[d], true
}

// DeviceCount returns the number of inventory devices.
func (b *BusController) DeviceCount() int { return len(b.inv) }

// DeviceName returns the display name of device d, or "".
func (b *BusController) DeviceName(d int) string {
	dev, ok := b.device(d)
	if !ok {
		return ""
	}
	if dev.Name == "" {
		return dev.ID
	}
	return dev.Name
}

// ZoneCount returns the number of zones on device d.
func (b *BusController) ZoneCount(d int) int {
	dev, _ := b.device(d)
	return len(dev.Zones)
}

// ZoneName returns the name of zone z on device d, or "".
func (b *BusController) ZoneName(d, z int) string {
	dev, _ := b.device(d)
	if z < 0 || z >= len(dev.Zones) {
		return ""
	}
	if dev.Zones[z].Name == "" {
		return fmt.Sprintf("Zone %d", z+1)
	}
	return dev.Zones[z].Name
}

// LEDCount returns the number of LEDs on device d.
func (b *BusController) LEDCount(d int) int {
	dev, _ := b.device(d)
	return dev.LEDTotal()
}

// LEDName returns "LED n" (1-based) for a valid index, or "".
func (b *BusController) LEDName(d, l int) string {
	if l < 0 || l >= b.LEDCount(d) {
		return ""
	}
	return fmt.Sprintf("LED %d", l+1)
}

// SetDeviceColor publishes a whole-device colour.
func (b *BusController) SetDeviceColor(d int, c spatial.Color) error {
	return b.send(d, spatial.TargetDevice, nil, nil, c)
}

// SetZoneColor publishes a zone colour.
func (b *BusController) SetZoneColor(d, z int, c spatial.Color) error {
	if z < 0 || z >= b.ZoneCount(d) {
		return fmt.Errorf("%w: device %d zone %d", ErrInvalidZone, d, z)
	}
	return b.send(d, spatial.TargetZone, &z, nil, c)
}

// SetLEDColor publishes a single LED colour.
func (b *BusController) SetLEDColor(d, l int, c spatial.Color) error {
	if l < 0 || l >= b.LEDCount(d) {
		return fmt.Errorf("%w: device %d led %d", ErrInvalidLED, d, l)
	}
	return b.send(d, spatial.TargetLED, nil, &l, c)
}

func (b *BusController) send(d int, target spatial.Target, zone, led *int, c spatial.Color) error {
	dev, ok := b.device(d)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidDevice, d)
	}
	if b.pub == nil {
		return ErrNoPublisher
	}

	payload, err := json.Marshal(ColorCommand{
		DeviceID: dev.ID,
		Target:   target,
		Zone:     zone,
		LED:      led,
		Color:    c,
		R:        c.R,
		G:        c.G,
		B:        c.B,
		Source:   "effect",
	})
	if err != nil {
		return fmt.Errorf("marshalling colour command: %w", err)
	}

	protocol := dev.Protocol
	if protocol == "" {
		protocol = "generic"
	}
	topic := mqtt.Topics{}.DeviceCommand(protocol, dev.ID)
	if err := b.pub.Publish(topic, payload, b.qos, false); err != nil {
		return fmt.Errorf("publishing to %q: %w", topic, err)
	}
	return nil
}
