package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by Lightscape.
const (
	MeasurementGridColor  = "grid_color"
	MeasurementEffectTick = "effect_tick"
)

// WritePoint queues a point. Dropped silently when not connected.
func (c *Client) WritePoint(p *write.Point) {
	if !c.IsConnected() || p == nil {
		return
	}
	c.writeAPI.WritePoint(p)
}

// WritePoints queues several points.
func (c *Client) WritePoints(points ...*write.Point) {
	for _, p := range points {
		c.WritePoint(p)
	}
}

// NewPoint builds a point. A zero ts means now.
func NewPoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) *write.Point {
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(measurement, tags, fields, ts)
}
