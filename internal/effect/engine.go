package effect

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// DefaultTickInterval is roughly 60 ticks per second.
const DefaultTickInterval = 16 * time.Millisecond

// Grid is the part of the spatial grid the engine reads and writes.
// ApplyColors must apply a whole frame under one grid lock.
type Grid interface {
	Scene() spatial.Scene
	ApplyColors(writes []spatial.ColorWrite) int
}

// Metrics receives engine measurements. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveTick(kind Kind, duration time.Duration, positions, writes int)
	SetRunning(kind Kind, running bool)
}

// Logger is the logging interface used by the engine.
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

type noopMetrics struct{}

func (noopMetrics) ObserveTick(Kind, time.Duration, int, int) {}
func (noopMetrics) SetRunning(Kind, bool)                     {}

// Options configures an Engine.
type Options struct {
	// TickInterval is the fixed tick period. Defaults to DefaultTickInterval.
	TickInterval time.Duration

	// Speed and Intensity seed the settings. Zero means the default.
	Speed     int
	Intensity int

	// Manual disables the internal ticker. The owner drives the engine by
	// calling Tick.
	Manual bool

	Logger  Logger
	Metrics Metrics
}

// Engine animates a grid with one effect at a time.
//
// Lifecycle:
//
//	Stopped ──Start(k)──▶ Running{k} ──Stop()──▶ Stopped
//	                        │    ▲
//	                        └────┘ Start(k2): stop, then start
//
// Every colour write happens under the engine lock after checking that
// the tick belongs to the current run, and EventColorsUpdated is only
// emitted while that run is still current. Stop waits for the ticker
// goroutine, so once it returns no further writes or frame events occur.
// The one exception is Stop called while a frame is being delivered: a
// handler on the ticker goroutine cannot wait for itself.
type Engine struct {
	grid     Grid
	interval time.Duration
	manual   bool
	logger   Logger
	metrics  Metrics

	mu       sync.Mutex
	kind     Kind
	elapsed  float32
	settings Settings
	registry *Registry
	running  bool
	closed   bool
	gen      uint64
	stopCh   chan struct{}
	done     chan struct{}

	// dispatching is set only while the ticker goroutine delivers
	// EventColorsUpdated; Stop called from a handler must not wait for
	// the loop to exit.
	dispatching atomic.Bool

	observers observers
}

// NewEngine creates an engine bound to grid.
func NewEngine(grid Grid, opts Options) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	s := DefaultSettings()
	if opts.Speed != 0 {
		s.Speed = opts.Speed
	}
	if opts.Intensity != 0 {
		s.Intensity = opts.Intensity
	}
	return &Engine{
		grid:     grid,
		interval: opts.TickInterval,
		manual:   opts.Manual,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		settings: s,
	}
}

// Subscribe registers h for engine events and returns an unsubscribe func.
func (e *Engine) Subscribe(h Handler) func() {
	return e.observers.subscribe(h)
}

// ─── Lifecycle ─────────────────────────────────────────────────────

// Start switches to kind. A running effect is stopped first, elapsed time
// is reset and EventStarted is emitted. Start(KindNone) is equivalent to
// Stop.
func (e *Engine) Start(kind Kind) error {
	if _, ok := kindNames[kind]; !ok {
		return ErrUnknownKind
	}
	e.Stop()
	if kind == KindNone {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if e.running {
		// A concurrent Start won the race; retire its loop.
		close(e.stopCh)
	}
	e.kind = kind
	e.elapsed = 0
	e.running = true
	e.gen++
	e.stopCh = make(chan struct{})
	e.done = make(chan struct{})
	gen, stopCh, done := e.gen, e.stopCh, e.done
	e.mu.Unlock()

	if e.manual {
		close(done)
	} else {
		go e.loop(gen, stopCh, done)
	}

	e.metrics.SetRunning(kind, true)
	e.logger.Info("effect started", "effect", kind.String())
	e.emit(Event{Type: EventStarted, Effect: kind})
	return nil
}

// Stop halts the running effect, resets it to KindNone and zeroes the
// elapsed time. It emits EventStopped only if an effect was running. After
// Stop returns no tick writes to the grid.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	kind := e.kind
	e.running = false
	e.kind = KindNone
	e.elapsed = 0
	e.gen++
	close(e.stopCh)
	done := e.done
	e.mu.Unlock()

	if !e.dispatching.Load() {
		<-done
	}

	e.metrics.SetRunning(kind, false)
	e.logger.Info("effect stopped", "effect", kind.String())
	e.emit(Event{Type: EventStopped, Effect: kind})
}

// Close stops the engine permanently. It must be called before the grid
// is discarded.
func (e *Engine) Close() {
	e.Stop()
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// loop drives ticks until stopCh closes.
func (e *Engine) loop(gen uint64, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			e.tick(gen, true)
		}
	}
}

// ─── Ticking ───────────────────────────────────────────────────────

// Tick runs one step of the current effect synchronously: compute and
// write colours, advance time, emit EventColorsUpdated. It does nothing
// when no effect is running.
func (e *Engine) Tick() {
	e.tick(0, false)
}

func (e *Engine) tick(gen uint64, checkGen bool) {
	start := time.Now()

	e.mu.Lock()
	if !e.running || (checkGen && gen != e.gen) {
		e.mu.Unlock()
		return
	}

	kind, settings := e.kind, e.settings
	if e.registry != nil {
		if l, ok := e.registry.Resolve(); ok {
			kind, settings = l.Kind, l.Settings
		}
	}

	scene := e.grid.Scene()
	writes := Frame(kind, scene, e.elapsed, settings)
	written := 0
	if len(writes) > 0 {
		written = e.grid.ApplyColors(writes)
	}

	e.elapsed += float32(e.interval.Seconds()) * (float32(settings.Speed) / 50)
	elapsed := e.elapsed
	e.mu.Unlock()

	e.metrics.ObserveTick(kind, time.Since(start), len(scene.Cells), written)

	if !checkGen {
		e.emit(Event{Type: EventColorsUpdated, Effect: kind, Elapsed: elapsed})
		return
	}

	// The flag goes up before the generation check: a Stop that sees it
	// down waits for the loop, and one that retires the run first makes
	// the check below drop the frame.
	e.dispatching.Store(true)
	defer e.dispatching.Store(false)

	e.mu.Lock()
	current := e.running && gen == e.gen
	e.mu.Unlock()
	if !current {
		return
	}
	e.emit(Event{Type: EventColorsUpdated, Effect: kind, Elapsed: elapsed})
}

func (e *Engine) emit(ev Event) {
	e.observers.notify(e.logger, ev)
}

// ─── Settings ──────────────────────────────────────────────────────

// Current returns the running effect, or KindNone.
func (e *Engine) Current() Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind
}

// Running reports whether an effect is running.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Elapsed returns effect time in seconds since the last Start, or zero
// when no effect is running.
func (e *Engine) Elapsed() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.settings
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}

// SetSpeed sets the time multiplier; 50 is neutral.
func (e *Engine) SetSpeed(speed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Speed = speed
}

// Speed returns the time multiplier.
func (e *Engine) Speed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Speed
}

// SetIntensity sets the brightness percentage.
func (e *Engine) SetIntensity(intensity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Intensity = intensity
}

// Intensity returns the brightness percentage.
func (e *Engine) Intensity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Intensity
}

// SetColor engages colour mode with target as the full-intensity colour.
func (e *Engine) SetColor(target spatial.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Target = &target
}

// SetBaseColor sets the zero-intensity colour used in colour mode.
func (e *Engine) SetBaseColor(base spatial.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Base = base
}

// ClearColor returns to greyscale output and resets the base to black.
func (e *Engine) ClearColor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Target = nil
	e.settings.Base = spatial.Black
}

// UseRegistry makes the engine follow the active layer of r on every tick.
// While r has no active layer the engine runs its own kind and settings.
// Pass nil to detach.
func (e *Engine) UseRegistry(r *Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry = r
}
