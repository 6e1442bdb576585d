package device

import (
	"context"
	"sync"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// SceneSource is the grid view the dispatcher reads.
type SceneSource interface {
	Scene() spatial.Scene
}

// Applier writes one assignment to hardware.
type Applier interface {
	Apply(a spatial.Assignment) bool
}

// DispatchMetrics receives per-write outcomes.
type DispatchMetrics interface {
	ObserveDeviceWrite(ok bool)
}

type noopDispatchMetrics struct{}

func (noopDispatchMetrics) ObserveDeviceWrite(bool) {}

type slotKey struct {
	pos   spatial.Position
	index int
}

type slot struct {
	target spatial.Assignment
	color  spatial.Color
}

// Dispatcher forwards assignment colours to hardware. Only assignments
// whose colour changed since the last successful write are sent. A failed
// write is retried on the next pass; it never blocks the other devices.
//
// A slot that keeps failing is reported once when it starts failing and
// once when it recovers.
type Dispatcher struct {
	source  SceneSource
	applier Applier

	signal chan struct{}

	mu      sync.Mutex
	logger  Logger
	metrics DispatchMetrics
	sent    map[slotKey]slot
	failing map[slotKey]bool
}

// NewDispatcher creates a dispatcher reading from source and writing
// through applier.
func NewDispatcher(source SceneSource, applier Applier) *Dispatcher {
	return &Dispatcher{
		source:  source,
		applier: applier,
		logger:  noopLogger{},
		metrics: noopDispatchMetrics{},
		signal:  make(chan struct{}, 1),
		sent:    make(map[slotKey]slot),
		failing: make(map[slotKey]bool),
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// SetMetrics sets the metrics sink for the dispatcher.
func (d *Dispatcher) SetMetrics(m DispatchMetrics) {
	if m == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = m
}

func (d *Dispatcher) log() Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logger
}

// Notify requests a dispatch pass. It never blocks; notifications that
// arrive while a pass is pending are coalesced.
func (d *Dispatcher) Notify() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

// Run performs a pass for every notification until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log().Info("device dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log().Info("device dispatcher stopped")
			return ctx.Err()
		case <-d.signal:
			d.Flush()
		}
	}
}

// Flush sends every changed assignment colour once and returns the number
// of successful and failed writes.
func (d *Dispatcher) Flush() (written, failed int) {
	scene := d.source.Scene()

	d.mu.Lock()
	defer d.mu.Unlock()

	live := make(map[slotKey]bool)
	for _, cell := range scene.Cells {
		for i, a := range cell.Assignments {
			key := slotKey{pos: cell.Position, index: i}
			live[key] = true

			prev, ok := d.sent[key]
			if ok && prev.target.SameTarget(a) && prev.color == a.Color {
				continue
			}
			if d.applier.Apply(a) {
				d.sent[key] = slot{target: a, color: a.Color}
				written++
				d.metrics.ObserveDeviceWrite(true)
				if d.failing[key] {
					delete(d.failing, key)
					d.logger.Info("device write recovered", "position", cell.Position.String(), "index", i, "device", a.DeviceIndex)
				}
			} else {
				delete(d.sent, key)
				failed++
				d.metrics.ObserveDeviceWrite(false)
				if !d.failing[key] {
					d.failing[key] = true
					d.logger.Warn("device write failing, retrying on later passes", "position", cell.Position.String(), "index", i, "device", a.DeviceIndex)
				}
			}
		}
	}
	for key := range d.sent {
		if !live[key] {
			delete(d.sent, key)
		}
	}
	for key := range d.failing {
		if !live[key] {
			delete(d.failing, key)
		}
	}

	if failed > 0 {
		d.logger.Debug("dispatch pass had failures", "written", written, "failed", failed)
	}
	return written, failed
}

// Reset forgets what was sent, forcing the next pass to write everything.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = make(map[slotKey]slot)
}
