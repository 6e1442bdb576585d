package effect

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types(filter ...EventType) []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []EventType
	for _, ev := range l.events {
		for _, f := range filter {
			if ev.Type == f {
				out = append(out, ev.Type)
			}
		}
	}
	return out
}

func (l *eventLog) count(t EventType) int {
	return len(l.types(t))
}

// mockMetrics records what the engine reports.
type mockMetrics struct {
	mu      sync.Mutex
	ticks   int
	writes  int
	running bool
}

func (m *mockMetrics) ObserveTick(_ Kind, _ time.Duration, _, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	m.writes += writes
}

func (m *mockMetrics) SetRunning(_ Kind, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = running
}

// blockingMetrics holds the first ObserveTick until release is closed.
type blockingMetrics struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingMetrics() *blockingMetrics {
	return &blockingMetrics{entered: make(chan struct{}), release: make(chan struct{})}
}

func (m *blockingMetrics) ObserveTick(Kind, time.Duration, int, int) {
	first := false
	m.once.Do(func() { first = true })
	if first {
		close(m.entered)
		<-m.release
	}
}

func (m *blockingMetrics) SetRunning(Kind, bool) {}

// concurrentGrid runs a write from another goroutine while a frame is
// being applied, then applies the frame.
type concurrentGrid struct {
	*spatial.Grid
	during func(*spatial.Grid)
	once   sync.Once
}

func (g *concurrentGrid) ApplyColors(writes []spatial.ColorWrite) int {
	g.once.Do(func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			g.during(g.Grid)
		}()
		<-done
	})
	return g.Grid.ApplyColors(writes)
}

func newManualEngine(t *testing.T, g *spatial.Grid) (*Engine, *eventLog) {
	t.Helper()
	e := NewEngine(g, Options{Manual: true})
	log := &eventLog{}
	e.Subscribe(log.handle)
	t.Cleanup(e.Close)
	return e, log
}

// ─── Scenarios ─────────────────────────────────────────────────────

func TestEngine_RadialFadeRoundTrip(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.SetUserPosition(spatial.Position{X: 1, Y: 1, Z: 1})
	origin := spatial.Position{}
	g.AddAssignment(origin, spatial.DeviceAssignment(2, spatial.Black))

	e, _ := newManualEngine(t, g)
	if err := e.Start(KindRadialFade); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if e.Elapsed() != 0 || e.Intensity() != 100 || e.Speed() != 50 {
		t.Fatalf("unexpected initial state: elapsed=%v intensity=%d speed=%d", e.Elapsed(), e.Intensity(), e.Speed())
	}
	e.Tick()

	fade := 1 - math.Sqrt(6)/math.Sqrt(27)
	want := uint8(255 * fade)
	got := g.Assignments(origin)[0].Color
	for _, ch := range []uint8{got.R, got.G, got.B} {
		if int(ch) < int(want)-1 || int(ch) > int(want)+1 {
			t.Errorf("channel = %d, want %d±1 (colour %v)", ch, want, got)
		}
	}
	if got.R != got.G || got.G != got.B {
		t.Errorf("greyscale expected, got %v", got)
	}
}

func TestEngine_StartStopStartSequence(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	e, log := newManualEngine(t, g)

	_ = e.Start(KindWave)
	e.Tick()
	e.Stop()
	_ = e.Start(KindRipple)

	if e.Current() != KindRipple {
		t.Errorf("Current = %v, want ripple", e.Current())
	}
	if e.Elapsed() != 0 {
		t.Errorf("Elapsed = %v, want 0", e.Elapsed())
	}
	got := log.types(EventStarted, EventStopped)
	want := []EventType{EventStarted, EventStopped, EventStarted}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEngine_StartWhileRunningStopsFirst(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	e, log := newManualEngine(t, g)

	_ = e.Start(KindWave)
	e.Tick()
	_ = e.Start(KindLayerCascade)

	got := log.types(EventStarted, EventStopped)
	want := []EventType{EventStarted, EventStopped, EventStarted}
	if len(got) != 3 || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
	if e.Elapsed() != 0 {
		t.Errorf("Elapsed = %v after restart, want 0", e.Elapsed())
	}
}

func TestEngine_StopWhenIdleIsSilent(t *testing.T) {
	e, log := newManualEngine(t, spatial.NewGrid(spatial.DefaultDimensions()))
	e.Stop()
	_ = e.Start(KindNone)
	if n := log.count(EventStopped); n != 0 {
		t.Errorf("stopped events = %d, want 0", n)
	}
	if e.Running() {
		t.Error("Start(KindNone) left the engine running")
	}
}

// ─── Ticking ───────────────────────────────────────────────────────

func TestEngine_NoReferenceSkipsWritesButAdvancesTime(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{X: 2, Y: 2, Z: 2}
	marker := spatial.Color{R: 7, G: 8, B: 9}
	g.AddAssignment(p, spatial.DeviceAssignment(0, marker))

	for _, k := range []Kind{KindRadialFade, KindWave, KindRipple} {
		t.Run(k.String(), func(t *testing.T) {
			e, log := newManualEngine(t, g)
			_ = e.Start(k)
			e.Tick()
			if got := g.Assignments(p)[0].Color; got != marker {
				t.Errorf("colour changed to %v without a reference", got)
			}
			if e.Elapsed() <= 0 {
				t.Error("elapsed time did not advance")
			}
			if log.count(EventColorsUpdated) != 1 {
				t.Errorf("colors_updated = %d, want 1", log.count(EventColorsUpdated))
			}
		})
	}
}

func TestEngine_LayerCascadeUniformPerLayer(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	a := spatial.Position{X: 0, Y: 0, Z: 1}
	b := spatial.Position{X: 2, Y: 1, Z: 1}
	c := spatial.Position{X: 0, Y: 0, Z: 2}
	for i, p := range []spatial.Position{a, b, c} {
		g.AddAssignment(p, spatial.DeviceAssignment(i, spatial.Black))
	}

	e, _ := newManualEngine(t, g)
	_ = e.Start(KindLayerCascade)
	for i := 0; i < 5; i++ {
		e.Tick()
	}

	ca := g.Assignments(a)[0].Color
	cb := g.Assignments(b)[0].Color
	cc := g.Assignments(c)[0].Color
	if ca != cb {
		t.Errorf("same layer differs: %v vs %v", ca, cb)
	}
	if ca == cc {
		t.Errorf("different layers produced identical colour %v", ca)
	}
}

func TestEngine_ElapsedScalesWithSpeed(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	e := NewEngine(g, Options{Manual: true, TickInterval: 100 * time.Millisecond})
	defer e.Close()

	_ = e.Start(KindLayerCascade)
	e.Tick()
	if !approx(e.Elapsed(), 0.1) {
		t.Errorf("elapsed at speed 50 = %v, want 0.1", e.Elapsed())
	}
	e.SetSpeed(100)
	e.Tick()
	if !approx(e.Elapsed(), 0.3) {
		t.Errorf("elapsed after double speed tick = %v, want 0.3", e.Elapsed())
	}
	e.SetSpeed(0)
	e.Tick()
	if !approx(e.Elapsed(), 0.3) {
		t.Errorf("elapsed at speed 0 = %v, want 0.3", e.Elapsed())
	}
}

func TestEngine_ColorMode(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{X: 1, Y: 1, Z: 1}
	g.SetUserPosition(p)
	g.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))

	e, _ := newManualEngine(t, g)
	e.SetColor(spatial.Color{R: 255, G: 100})
	e.SetBaseColor(spatial.Color{B: 40})
	_ = e.Start(KindRadialFade)
	e.Tick()

	// At the reference the fade factor is 1, so the target colour is written.
	if got := g.Assignments(p)[0].Color; got != (spatial.Color{R: 255, G: 100}) {
		t.Errorf("colour = %v, want target", got)
	}

	e.ClearColor()
	e.Tick()
	if got := g.Assignments(p)[0].Color; got != spatial.White {
		t.Errorf("colour after ClearColor = %v, want white", got)
	}
}

func TestEngine_TickKeepsConcurrentGridEvents(t *testing.T) {
	base := spatial.NewGrid(spatial.DefaultDimensions())
	base.SetRequiresUserPosition(true)
	base.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(0, spatial.Black))

	var mu sync.Mutex
	var seen []spatial.EventType
	base.Subscribe(func(ev spatial.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.Type)
	})

	g := &concurrentGrid{Grid: base, during: func(g *spatial.Grid) {
		g.SetUserPosition(spatial.Position{X: 1, Y: 1, Z: 1})
	}}
	e := NewEngine(g, Options{Manual: true})
	defer e.Close()

	_ = e.Start(KindLayerCascade)
	e.Tick()

	mu.Lock()
	defer mu.Unlock()
	has := func(want spatial.EventType) bool {
		for _, typ := range seen {
			if typ == want {
				return true
			}
		}
		return false
	}
	if !has(spatial.EventUserPositionChanged) {
		t.Errorf("events = %v, want grid.user_position_changed", seen)
	}
	if !has(spatial.EventGridUpdated) {
		t.Errorf("events = %v, want grid.updated for the frame", seen)
	}
}

func TestEngine_TickWhenStoppedDoesNothing(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{}
	g.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))
	e, log := newManualEngine(t, g)

	_ = e.Start(KindLayerCascade)
	e.Stop()
	e.Tick()

	if got := g.Assignments(p)[0].Color; got != spatial.Black {
		t.Errorf("write after Stop: %v", got)
	}
	if log.count(EventColorsUpdated) != 0 {
		t.Error("colors_updated after Stop")
	}
}

func TestEngine_Metrics(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(0, spatial.Black))
	g.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(1, spatial.Black))
	m := &mockMetrics{}
	e := NewEngine(g, Options{Manual: true, Metrics: m})
	defer e.Close()

	_ = e.Start(KindLayerCascade)
	if !m.running {
		t.Error("metrics not told the engine is running")
	}
	e.Tick()
	e.Tick()
	if m.ticks != 2 || m.writes != 4 {
		t.Errorf("ticks=%d writes=%d, want 2 and 4", m.ticks, m.writes)
	}
	e.Stop()
	if m.running {
		t.Error("metrics still report running after Stop")
	}
}

func TestEngine_Registry_FirstActiveWins(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{}
	g.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))

	red := spatial.Color{R: 255}
	blue := spatial.Color{B: 255}
	r := NewRegistry()
	_, _ = r.Register(Layer{ID: "red", Kind: KindLayerCascade, Settings: Settings{Speed: 50, Intensity: 100, Target: &red}, Active: true})
	_, _ = r.Register(Layer{ID: "blue", Kind: KindLayerCascade, Settings: Settings{Speed: 50, Intensity: 100, Target: &blue}, Active: true})

	e, _ := newManualEngine(t, g)
	e.UseRegistry(r)
	_ = e.Start(KindLayerCascade)
	e.Tick()

	got := g.Assignments(p)[0].Color
	if got.R != 0 || got.B == 0 {
		t.Errorf("colour = %v, want the later (blue) layer to win", got)
	}

	_ = r.SetActive("blue", false)
	e.Tick()
	got = g.Assignments(p)[0].Color
	if got.R == 0 || got.B != 0 {
		t.Errorf("colour = %v, want red once blue is inactive", got)
	}

	_ = r.SetActive("red", false)
	e.Tick()
	got = g.Assignments(p)[0].Color
	if got.R == 0 || got.R != got.G || got.G != got.B {
		t.Errorf("colour = %v, want the engine's own greyscale effect with no active layer", got)
	}
}

// ─── Timer loop ────────────────────────────────────────────────────

func TestEngine_TimerLoop(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{}
	g.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))

	e := NewEngine(g, Options{TickInterval: time.Millisecond})
	defer e.Close()

	ticked := make(chan struct{}, 1)
	e.Subscribe(func(ev Event) {
		if ev.Type == EventColorsUpdated {
			select {
			case ticked <- struct{}{}:
			default:
			}
		}
	})

	_ = e.Start(KindLayerCascade)
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick within 2s")
	}

	e.Stop()
	after := g.Assignments(p)[0].Color
	elapsed := e.Elapsed()
	time.Sleep(20 * time.Millisecond)
	if got := g.Assignments(p)[0].Color; got != after {
		t.Errorf("colour changed after Stop: %v -> %v", after, got)
	}
	if e.Elapsed() != elapsed {
		t.Error("elapsed advanced after Stop")
	}
}

func TestEngine_StopWaitsForInFlightTick(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(0, spatial.Black))
	m := newBlockingMetrics()
	e := NewEngine(g, Options{TickInterval: time.Millisecond, Metrics: m})
	defer e.Close()
	log := &eventLog{}
	e.Subscribe(log.handle)

	_ = e.Start(KindLayerCascade)
	select {
	case <-m.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick within 2s")
	}

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a tick was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(m.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the tick finished")
	}

	time.Sleep(10 * time.Millisecond)
	got := log.types(EventStarted, EventStopped, EventColorsUpdated)
	want := []EventType{EventStarted, EventStopped}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestEngine_StopResetsElapsed(t *testing.T) {
	e, _ := newManualEngine(t, spatial.NewGrid(spatial.DefaultDimensions()))
	_ = e.Start(KindWave)
	e.Tick()
	e.Tick()
	if e.Elapsed() <= 0 {
		t.Fatal("elapsed did not advance")
	}
	e.Stop()
	if e.Elapsed() != 0 {
		t.Errorf("Elapsed after Stop = %v, want 0", e.Elapsed())
	}
}

func TestEngine_StopFromHandler(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(0, spatial.Black))
	e := NewEngine(g, Options{TickInterval: time.Millisecond})
	defer e.Close()

	stopped := make(chan struct{})
	var once sync.Once
	e.Subscribe(func(ev Event) {
		switch ev.Type {
		case EventColorsUpdated:
			e.Stop()
		case EventStopped:
			once.Do(func() { close(stopped) })
		}
	})

	_ = e.Start(KindLayerCascade)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop from handler deadlocked")
	}
	if e.Running() {
		t.Error("engine still running")
	}
}

func TestEngine_CloseRejectsStart(t *testing.T) {
	e := NewEngine(spatial.NewGrid(spatial.DefaultDimensions()), Options{Manual: true})
	e.Close()
	if err := e.Start(KindWave); err != ErrEngineClosed {
		t.Errorf("Start after Close = %v, want ErrEngineClosed", err)
	}
}
