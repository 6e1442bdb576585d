package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Wolfieeewolf/lightscape/internal/device"
	"github.com/Wolfieeewolf/lightscape/internal/effect"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/config"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/logging"
	"github.com/Wolfieeewolf/lightscape/internal/layout"
	"github.com/Wolfieeewolf/lightscape/internal/observability"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client that can
// report whether its backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Grid    *spatial.Grid
	Engine  *effect.Engine
	Devices *device.Manager

	// Optional.
	Layouts  layout.Repository
	Registry *effect.Registry
	Metrics  *observability.Collector
	Health   map[string]HealthChecker
	Version  string
}

// Server is the HTTP API server for Lightscape.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	grid     *spatial.Grid
	engine   *effect.Engine
	devices  *device.Manager
	layouts  layout.Repository
	registry *effect.Registry
	metrics  *observability.Collector
	health   map[string]HealthChecker
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc

	unsubMu sync.Mutex
	unsub   []func()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Grid == nil {
		return nil, fmt.Errorf("grid is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("effect engine is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device manager is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		grid:     deps.Grid,
		engine:   deps.Engine,
		devices:  deps.Devices,
		layouts:  deps.Layouts,
		registry: deps.Registry,
		metrics:  deps.Metrics,
		health:   deps.Health,
		version:  deps.Version,
		hub:      NewHub(deps.WS, deps.Logger),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, subscribes the hub to grid, engine and device
// events, and launches the HTTP listener in a background goroutine. The
// server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	s.relayEvents()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.unsubMu.Lock()
	for _, unsub := range s.unsub {
		unsub()
	}
	s.unsub = nil
	s.unsubMu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// Handler returns the fully wired router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
