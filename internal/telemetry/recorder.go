// Package telemetry samples animated grid colours into InfluxDB.
package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Wolfieeewolf/lightscape/internal/effect"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/influxdb"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// PointWriter queues points for storage. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// SceneSource provides the current grid state. *spatial.Grid satisfies it.
type SceneSource interface {
	Scene() spatial.Scene
}

// Recorder writes one sample every N colour frames: a grid_color point per
// assigned position and one effect_tick point.
type Recorder struct {
	writer PointWriter
	scene  SceneSource
	every  int
	now    func() time.Time

	mu     sync.Mutex
	frames int
}

// NewRecorder creates a recorder sampling every `every` frames. Values
// below 1 sample every frame.
func NewRecorder(w PointWriter, scene SceneSource, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{writer: w, scene: scene, every: every, now: time.Now}
}

// Handle is an effect.Handler. Subscribe it to the engine.
func (r *Recorder) Handle(ev effect.Event) {
	switch ev.Type {
	case effect.EventStarted:
		r.mu.Lock()
		r.frames = 0
		r.mu.Unlock()
	case effect.EventColorsUpdated:
		r.mu.Lock()
		due := r.frames%r.every == 0
		r.frames++
		r.mu.Unlock()
		if due {
			r.Record(ev.Effect, ev.Elapsed)
		}
	}
}

// Record writes a sample of the current grid immediately and returns the
// number of points written.
func (r *Recorder) Record(kind effect.Kind, elapsed float32) int {
	scene := r.scene.Scene()
	ts := r.now()
	name := kind.String()

	for _, c := range scene.Cells {
		if len(c.Assignments) == 0 {
			continue
		}
		col := c.Assignments[0].Color
		r.writer.WritePoint(influxdb.NewPoint(influxdb.MeasurementGridColor,
			map[string]string{
				"x":      strconv.Itoa(c.Position.X),
				"y":      strconv.Itoa(c.Position.Y),
				"z":      strconv.Itoa(c.Position.Z),
				"label":  c.Label,
				"effect": name,
			},
			map[string]any{
				"r":           int(col.R),
				"g":           int(col.G),
				"b":           int(col.B),
				"assignments": len(c.Assignments),
			}, ts))
	}

	r.writer.WritePoint(influxdb.NewPoint(influxdb.MeasurementEffectTick,
		map[string]string{"effect": name},
		map[string]any{
			"elapsed":   float64(elapsed),
			"positions": len(scene.Cells),
		}, ts))

	return len(scene.Cells) + 1
}
