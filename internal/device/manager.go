package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// EventError is the event type emitted when a device operation fails.
const EventError = "device.error"

// ErrorEvent describes a failed device operation.
type ErrorEvent struct {
	Type        string `json:"type"`
	DeviceIndex int    `json:"device_index"`
	ZoneIndex   int    `json:"zone_index"`
	LEDIndex    int    `json:"led_index"`
	Message     string `json:"message"`
}

// The same failure message is logged at warn level at most once per
// warnInterval; repeats go to debug.
const (
	warnInterval = time.Minute
	maxWarned    = 256
)

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager guards a Controller. Every index is validated before the call is
// forwarded; controller errors and panics become a false return, a
// last-error string and an ErrorEvent.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Calls into the Controller
//     are serialised.
type Manager struct {
	ctrl Controller

	callMu sync.Mutex // serialises controller calls

	mu       sync.Mutex
	logger   Logger
	lastErr  string
	warned   map[string]time.Time
	now      func() time.Time
	nextID   int
	handlers map[int]func(ErrorEvent)
}

// NewManager creates a Manager around ctrl.
func NewManager(ctrl Controller) *Manager {
	return &Manager{
		ctrl:     ctrl,
		logger:   noopLogger{},
		warned:   make(map[string]time.Time),
		now:      time.Now,
		handlers: make(map[int]func(ErrorEvent)),
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// OnError registers h for ErrorEvents. The returned func unsubscribes.
func (m *Manager) OnError(h func(ErrorEvent)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

// LastError returns the message of the most recent failure, or "".
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError resets LastError.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = ""
}

func (m *Manager) fail(device, zone, led int, err error) {
	ev := ErrorEvent{
		Type:        EventError,
		DeviceIndex: device,
		ZoneIndex:   zone,
		LEDIndex:    led,
		Message:     err.Error(),
	}

	m.mu.Lock()
	now := m.now()
	last, seen := m.warned[ev.Message]
	repeated := seen && now.Sub(last) < warnInterval
	if !repeated {
		m.pruneWarned(now)
		m.warned[ev.Message] = now
	}
	m.lastErr = ev.Message
	logger := m.logger
	hs := make([]func(ErrorEvent), 0, len(m.handlers))
	for _, h := range m.handlers {
		hs = append(hs, h)
	}
	m.mu.Unlock()

	logf := logger.Warn
	if repeated {
		logf = logger.Debug
	}
	logf("device operation failed",
		"device", device, "zone", zone, "led", led, "error", ev.Message)
	for _, h := range hs {
		m.notify(logger, h, ev)
	}
}

// pruneWarned drops expired entries once the table grows. Callers must
// hold m.mu.
func (m *Manager) pruneWarned(now time.Time) {
	if len(m.warned) < maxWarned {
		return
	}
	for msg, at := range m.warned {
		if now.Sub(at) >= warnInterval {
			delete(m.warned, msg)
		}
	}
}

func (m *Manager) notify(logger Logger, h func(ErrorEvent), ev ErrorEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("device error handler panicked", "panic", r)
		}
	}()
	h(ev)
}

// call runs fn against the controller, converting a panic into an error.
func (m *Manager) call(fn func() error) (err error) {
	m.callMu.Lock()
	defer m.callMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("controller panic: %v", r)
		}
	}()
	return fn()
}

// ─── Inventory ─────────────────────────────────────────────────────

// DeviceCount returns the number of devices, or 0 if the controller fails.
func (m *Manager) DeviceCount() int {
	var n int
	if err := m.call(func() error { n = m.ctrl.DeviceCount(); return nil }); err != nil {
		m.fail(spatial.None, spatial.None, spatial.None, err)
		return 0
	}
	return n
}

// Devices describes every device known to the controller.
func (m *Manager) Devices() []Summary {
	var out []Summary
	err := m.call(func() error {
		n := m.ctrl.DeviceCount()
		out = make([]Summary, 0, n)
		for d := 0; d < n; d++ {
			s := Summary{Index: d, Name: m.ctrl.DeviceName(d), LEDs: m.ctrl.LEDCount(d)}
			for z := 0; z < m.ctrl.ZoneCount(d); z++ {
				s.Zones = append(s.Zones, m.ctrl.ZoneName(d, z))
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		m.fail(spatial.None, spatial.None, spatial.None, err)
		return nil
	}
	return out
}

// validate checks the indices of a against the controller.
func (m *Manager) validate(a spatial.Assignment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return m.call(func() error {
		if a.DeviceIndex >= m.ctrl.DeviceCount() {
			return fmt.Errorf("%w: %d", ErrInvalidDevice, a.DeviceIndex)
		}
		if a.ZoneIndex >= 0 && a.ZoneIndex >= m.ctrl.ZoneCount(a.DeviceIndex) {
			return fmt.Errorf("%w: device %d zone %d", ErrInvalidZone, a.DeviceIndex, a.ZoneIndex)
		}
		if a.LEDIndex >= 0 && a.LEDIndex >= m.ctrl.LEDCount(a.DeviceIndex) {
			return fmt.Errorf("%w: device %d led %d", ErrInvalidLED, a.DeviceIndex, a.LEDIndex)
		}
		return nil
	})
}

// ─── Colour writes ─────────────────────────────────────────────────

// SetDeviceColor sets a whole device.
func (m *Manager) SetDeviceColor(device int, c spatial.Color) bool {
	return m.Apply(spatial.DeviceAssignment(device, c))
}

// SetZoneColor sets one zone of a device.
func (m *Manager) SetZoneColor(device, zone int, c spatial.Color) bool {
	return m.Apply(spatial.ZoneAssignment(device, zone, c))
}

// SetLEDColor sets one LED of a device.
func (m *Manager) SetLEDColor(device, led int, c spatial.Color) bool {
	return m.Apply(spatial.LEDAssignment(device, led, c))
}

// Apply writes the assignment's colour to its target. It returns false on
// any failure; see LastError.
func (m *Manager) Apply(a spatial.Assignment) bool {
	if err := m.validate(a); err != nil {
		m.fail(a.DeviceIndex, a.ZoneIndex, a.LEDIndex, err)
		return false
	}

	err := m.call(func() error {
		switch a.Target() {
		case spatial.TargetZone:
			return m.ctrl.SetZoneColor(a.DeviceIndex, a.ZoneIndex, a.Color)
		case spatial.TargetLED:
			return m.ctrl.SetLEDColor(a.DeviceIndex, a.LEDIndex, a.Color)
		default:
			return m.ctrl.SetDeviceColor(a.DeviceIndex, a.Color)
		}
	})
	if err != nil {
		m.fail(a.DeviceIndex, a.ZoneIndex, a.LEDIndex, fmt.Errorf("%w: %w", ErrWriteFailed, err))
		return false
	}
	return true
}
