package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Wolfieeewolf/lightscape/internal/api"
	"github.com/Wolfieeewolf/lightscape/internal/device"
	"github.com/Wolfieeewolf/lightscape/internal/effect"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/config"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/database"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/influxdb"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/logging"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/mqtt"
	"github.com/Wolfieeewolf/lightscape/internal/layout"
	"github.com/Wolfieeewolf/lightscape/internal/observability"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
	"github.com/Wolfieeewolf/lightscape/internal/telemetry"
	"github.com/Wolfieeewolf/lightscape/migrations"
)

// run is the serve command, separated from cobra for testability.
// It blocks until ctx is cancelled and returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // Linear startup sequence
	log := logging.Default()
	log.Info("starting Lightscape",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database and saved layouts
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")
	layouts := layout.NewSQLiteRepository(db.DB)

	checks := map[string]api.HealthChecker{"database": db}

	// MQTT (optional: without it the grid and effects run but nothing
	// reaches the hardware)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		checks["mqtt"] = mqttClient

		if subErr := watchBridgeHealth(mqttClient, log); subErr != nil {
			log.Warn("bridge health subscription failed", "error", subErr)
		}
	} else {
		log.Info("MQTT disabled, device output is off")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	// Grid
	grid := spatial.NewGrid(spatial.Dimensions{
		Width:  cfg.Grid.Width,
		Height: cfg.Grid.Height,
		Depth:  cfg.Grid.Depth,
	})
	grid.SetLogger(log.Component("grid"))
	grid.SetRequiresUserPosition(cfg.Grid.RequiresUserPosition)

	if cfg.Grid.Layout != "" {
		saved, loadErr := layout.LoadInto(ctx, layouts, grid, cfg.Grid.Layout)
		switch {
		case loadErr == nil:
			log.Info("layout loaded", "name", saved.Name, "assignments", saved.Layout.AssignmentCount())
		case errors.Is(loadErr, layout.ErrLayoutNotFound):
			log.Warn("configured layout not found, starting with an empty grid", "layout", cfg.Grid.Layout)
		default:
			return fmt.Errorf("loading layout %q: %w", cfg.Grid.Layout, loadErr)
		}
	}

	// Devices
	inventory := inventoryFromConfig(cfg.Devices)
	var publisher device.Publisher
	if mqttClient != nil {
		publisher = mqttClient
	}
	bus := device.NewBusController(inventory, publisher)
	bus.SetQoS(0)
	manager := device.NewManager(bus)
	manager.SetLogger(log.Component("device"))
	manager.OnError(func(ev device.ErrorEvent) {
		log.Debug("device write failed",
			"device", ev.DeviceIndex,
			"zone", ev.ZoneIndex,
			"led", ev.LEDIndex,
			"error", ev.Message,
		)
	})
	log.Info("device inventory loaded", "devices", len(inventory))

	if mqttClient != nil {
		dispatcher := device.NewDispatcher(grid, manager)
		dispatcher.SetLogger(log.Component("dispatcher"))
		dispatcher.SetMetrics(metrics)
		unsub := grid.Subscribe(func(spatial.Event) { dispatcher.Notify() })
		defer unsub()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected, resending colours")
			dispatcher.Reset()
			dispatcher.Notify()
		})
		go func() {
			if runErr := dispatcher.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				log.Error("dispatcher stopped", "error", runErr)
			}
		}()
		dispatcher.Notify()
	}

	// Effect engine
	engine, err := newEngine(cfg, grid, log, metrics)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("stopping effect engine")
		engine.Close()
	}()

	// Layers registered over the API override the engine's own effect
	// while one of them is active.
	registry := effect.NewRegistry()
	engine.UseRegistry(registry)

	if influxClient != nil {
		recorder := telemetry.NewRecorder(influxClient, grid, cfg.InfluxDB.SampleEvery)
		defer engine.Subscribe(recorder.Handle)()
	}
	if mqttClient != nil {
		defer engine.Subscribe(effectStatePublisher(mqttClient, log))()
	}

	// HTTP API
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Grid:     grid,
		Engine:   engine,
		Devices:  manager,
		Layouts:  layouts,
		Registry: registry,
		Metrics:  metrics,
		Health:   checks,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if cfg.Effect.Default != "" {
		kind, parseErr := effect.ParseKind(cfg.Effect.Default)
		if parseErr != nil {
			return fmt.Errorf("default effect: %w", parseErr)
		}
		if startErr := engine.Start(kind); startErr != nil {
			return fmt.Errorf("starting default effect: %w", startErr)
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API, engine, InfluxDB,
	// MQTT, database.
	log.Info("Lightscape stopped")
	return nil
}

// newEngine creates the effect engine from the effect config section.
func newEngine(cfg *config.Config, grid *spatial.Grid, log *logging.Logger, metrics *observability.Collector) (*effect.Engine, error) {
	engine := effect.NewEngine(grid, effect.Options{
		TickInterval: cfg.GetTickInterval(),
		Speed:        cfg.Effect.Speed,
		Intensity:    cfg.Effect.Intensity,
		Logger:       log.Component("effect"),
		Metrics:      metrics,
	})
	if cfg.Effect.BaseColor != "" {
		c, err := spatial.ParseColor(cfg.Effect.BaseColor)
		if err != nil {
			return nil, fmt.Errorf("effect.base_color: %w", err)
		}
		engine.SetBaseColor(c)
	}
	if cfg.Effect.TargetColor != "" {
		c, err := spatial.ParseColor(cfg.Effect.TargetColor)
		if err != nil {
			return nil, fmt.Errorf("effect.target_color: %w", err)
		}
		engine.SetColor(c)
	}
	return engine, nil
}

// inventoryFromConfig converts the devices section into a device inventory.
func inventoryFromConfig(devices []config.DeviceConfig) device.Inventory {
	inv := make(device.Inventory, 0, len(devices))
	for _, d := range devices {
		dev := device.Device{ID: d.ID, Name: d.Name, Protocol: d.Protocol, LEDs: d.LEDs}
		for _, z := range d.Zones {
			dev.Zones = append(dev.Zones, device.Zone{Name: z.Name, LEDs: z.LEDs})
		}
		inv = append(inv, dev)
	}
	return inv
}

// effectState is the retained payload on lightscape/effect/state.
type effectState struct {
	Effect  effect.Kind `json:"effect"`
	Running bool        `json:"running"`
}

// effectStatePublisher returns an engine handler that publishes start and
// stop transitions as a retained message so bridges and dashboards see the
// current effect on connect.
func effectStatePublisher(client *mqtt.Client, log *logging.Logger) effect.Handler {
	topic := mqtt.Topics{}.EffectState()
	return func(ev effect.Event) {
		var state effectState
		switch ev.Type {
		case effect.EventStarted:
			state = effectState{Effect: ev.Effect, Running: true}
		case effect.EventStopped:
			state = effectState{Effect: effect.KindNone}
		default:
			return
		}
		payload, err := json.Marshal(state)
		if err != nil {
			return
		}
		if err := client.PublishRetained(topic, payload); err != nil {
			log.Warn("publishing effect state failed", "error", err)
		}
	}
}

// watchBridgeHealth logs health reports from protocol bridges.
func watchBridgeHealth(client *mqtt.Client, log *logging.Logger) error {
	return client.Subscribe(mqtt.Topics{}.AllBridgeHealth(), 1, func(topic string, payload []byte) error {
		var report struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(payload, &report); err != nil {
			return fmt.Errorf("parsing bridge health: %w", err)
		}
		log.Info("bridge health",
			"protocol", mqtt.ProtocolFromHealthTopic(topic),
			"status", report.Status,
		)
		return nil
	})
}

// healthCheck verifies every infrastructure connection, in name order, and
// returns the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := checks[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
