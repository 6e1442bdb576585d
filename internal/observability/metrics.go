// Package observability exposes Lightscape metrics to Prometheus.
package observability

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Wolfieeewolf/lightscape/internal/effect"
)

// Collector bundles the engine, device and HTTP metrics. It implements
// effect.Metrics and device.DispatchMetrics. A nil *Collector is a valid
// no-op.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks             *prometheus.CounterVec
	TickDurations     *prometheus.HistogramVec
	ColorWrites       *prometheus.CounterVec
	Running           *prometheus.GaugeVec
	AssignedPositions prometheus.Gauge
	DeviceWrites      *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDurations     *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Ticks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightscape_effect_ticks_total",
		Help: "Effect engine ticks, labeled by effect.",
	}, []string{"effect"})); err != nil {
		return nil, err
	}
	if c.TickDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lightscape_effect_tick_duration_seconds",
		Help:    "Time spent computing and writing one effect frame.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05},
	}, []string{"effect"})); err != nil {
		return nil, err
	}
	if c.ColorWrites, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightscape_effect_color_writes_total",
		Help: "Assignment colours written by the effect engine.",
	}, []string{"effect"})); err != nil {
		return nil, err
	}
	if c.Running, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lightscape_effect_running",
		Help: "1 while the labeled effect is running.",
	}, []string{"effect"})); err != nil {
		return nil, err
	}
	if c.AssignedPositions, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightscape_grid_assigned_positions",
		Help: "Grid positions with at least one assignment, as of the last tick.",
	})); err != nil {
		return nil, err
	}
	if c.DeviceWrites, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightscape_device_writes_total",
		Help: "Colour writes sent to devices, labeled by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightscape_http_requests_total",
		Help: "Handled API requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lightscape_http_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveTick implements effect.Metrics.
func (c *Collector) ObserveTick(kind effect.Kind, duration time.Duration, positions, writes int) {
	if c == nil {
		return
	}
	name := kind.String()
	c.Ticks.WithLabelValues(name).Inc()
	c.TickDurations.WithLabelValues(name).Observe(duration.Seconds())
	c.ColorWrites.WithLabelValues(name).Add(float64(writes))
	c.AssignedPositions.Set(float64(positions))
}

// SetRunning implements effect.Metrics.
func (c *Collector) SetRunning(kind effect.Kind, running bool) {
	if c == nil {
		return
	}
	v := 0.0
	if running {
		v = 1
	}
	c.Running.WithLabelValues(kind.String()).Set(v)
}

// ObserveDeviceWrite implements device.DispatchMetrics.
func (c *Collector) ObserveDeviceWrite(ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.DeviceWrites.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		c.HTTPDurations.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack is needed for the WebSocket upgrade.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("observability: response writer does not support hijacking")
	}
	return h.Hijack()
}

// register adds col to reg, returning the already registered collector of
// the same type if there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
