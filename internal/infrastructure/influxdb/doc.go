// Package influxdb records Lightscape telemetry in InfluxDB v2.
//
// It wraps influxdb-client-go v2 with a ping on connect, a batched
// non-blocking write API and a health check. The telemetry package decides
// what to write; this package only moves points.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WritePoint(influxdb.NewPoint(influxdb.MeasurementEffectTick,
//	    map[string]string{"effect": "wave"},
//	    map[string]any{"elapsed": 1.25}, time.Time{}))
package influxdb
