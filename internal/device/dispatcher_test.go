package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

type countingMetrics struct {
	ok, failed int
}

func (c *countingMetrics) ObserveDeviceWrite(ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func TestDispatcher_Flush_OnlyChanged(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{X: 1}
	g.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))
	g.AddAssignment(p, spatial.LEDAssignment(1, 2, spatial.Black))

	ctrl := newMockController(2)
	d := NewDispatcher(g, NewManager(ctrl))
	metrics := &countingMetrics{}
	d.SetMetrics(metrics)

	if w, f := d.Flush(); w != 2 || f != 0 {
		t.Fatalf("first Flush = %d/%d, want 2/0", w, f)
	}
	if w, _ := d.Flush(); w != 0 {
		t.Errorf("unchanged Flush wrote %d", w)
	}

	g.UpdateAssignmentColor(p, 1, spatial.White)
	if w, _ := d.Flush(); w != 1 {
		t.Errorf("Flush after one change wrote %d, want 1", w)
	}
	if metrics.ok != 3 {
		t.Errorf("metrics ok = %d, want 3", metrics.ok)
	}

	d.Reset()
	if w, _ := d.Flush(); w != 2 {
		t.Errorf("Flush after Reset wrote %d, want 2", w)
	}
}

func TestDispatcher_FailureDoesNotBlockOthers(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.AddAssignment(spatial.Position{X: 0}, spatial.DeviceAssignment(0, spatial.White))
	g.AddAssignment(spatial.Position{X: 1}, spatial.DeviceAssignment(1, spatial.White))
	g.AddAssignment(spatial.Position{X: 2}, spatial.DeviceAssignment(7, spatial.White))

	ctrl := newMockController(2)
	ctrl.failOn[0] = errors.New("offline")
	d := NewDispatcher(g, NewManager(ctrl))

	w, f := d.Flush()
	if w != 1 || f != 2 {
		t.Errorf("Flush = %d written / %d failed, want 1/2", w, f)
	}

	// Failed writes are retried on the next pass.
	delete(ctrl.failOn, 0)
	if w, f := d.Flush(); w != 1 || f != 1 {
		t.Errorf("retry Flush = %d/%d, want 1/1", w, f)
	}
}

func TestDispatcher_FailingSlotLoggedOnTransition(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	p := spatial.Position{}
	g.AddAssignment(p, spatial.DeviceAssignment(0, spatial.White))

	ctrl := newMockController(1)
	ctrl.failOn[0] = errors.New("offline")
	d := NewDispatcher(g, NewManager(ctrl))
	log := &recordingLogger{}
	d.SetLogger(log)

	const failing = "device write failing, retrying on later passes"
	const recovered = "device write recovered"

	for i := 0; i < 5; i++ {
		d.Flush()
	}
	if n := log.count("warn", failing); n != 1 {
		t.Errorf("failing warnings after 5 passes = %d, want 1", n)
	}

	delete(ctrl.failOn, 0)
	d.Flush()
	d.Flush()
	if n := log.count("info", recovered); n != 1 {
		t.Errorf("recovery logs = %d, want 1", n)
	}

	ctrl.failOn[0] = errors.New("offline")
	g.ApplyColors([]spatial.ColorWrite{{Position: p, Color: spatial.Black}})
	d.Flush()
	d.Flush()
	if n := log.count("warn", failing); n != 2 {
		t.Errorf("failing warnings after relapse = %d, want 2", n)
	}
}

func TestDispatcher_SetLoggerDuringRun(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(0, spatial.White))
	d := NewDispatcher(g, NewManager(newMockController(1)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	for i := 0; i < 20; i++ {
		d.SetLogger(&recordingLogger{})
		d.SetMetrics(&countingMetrics{})
		d.Notify()
	}
	cancel()
	<-done
}

func TestDispatcher_Run(t *testing.T) {
	g := spatial.NewGrid(spatial.DefaultDimensions())
	g.AddAssignment(spatial.Position{}, spatial.DeviceAssignment(0, spatial.White))
	ctrl := newMockController(1)
	d := NewDispatcher(g, NewManager(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	for i := 0; i < 10; i++ {
		d.Notify()
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.writeCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ctrl.writeCount() != 1 {
		t.Errorf("writes = %d, want 1 (notifications coalesce, unchanged colours skipped)", ctrl.writeCount())
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
