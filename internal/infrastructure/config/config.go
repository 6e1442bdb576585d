package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Lightscape.
// Values come from defaults, then the YAML file, then environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Grid      GridConfig      `yaml:"grid"`
	Effect    EffectConfig    `yaml:"effect"`
	Devices   []DeviceConfig  `yaml:"devices"`
}

// SiteConfig identifies the installation.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains reconnection delays in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
// SampleEvery controls how many effect frames pass between recorded samples.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
	SampleEvery   int    `yaml:"sample_every"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// GridConfig sets the initial shape of the spatial grid.
type GridConfig struct {
	Width                int  `yaml:"width"`
	Height               int  `yaml:"height"`
	Depth                int  `yaml:"depth"`
	RequiresUserPosition bool `yaml:"requires_user_position"`

	// Layout is the name of a saved layout to load at startup.
	Layout string `yaml:"layout"`
}

// EffectConfig holds the engine defaults. Colours are hex strings.
type EffectConfig struct {
	Default        string `yaml:"default"`
	Speed          int    `yaml:"speed"`
	Intensity      int    `yaml:"intensity"`
	TickIntervalMS int    `yaml:"tick_interval_ms"`
	BaseColor      string `yaml:"base_color"`
	TargetColor    string `yaml:"target_color"`
}

// DeviceConfig describes one controllable LED device.
type DeviceConfig struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Protocol string       `yaml:"protocol"`
	LEDs     int          `yaml:"leds"`
	Zones    []ZoneConfig `yaml:"zones"`
}

// ZoneConfig is a named LED range within a device.
type ZoneConfig struct {
	Name string `yaml:"name"`
	LEDs int    `yaml:"leds"`
}

// Grid limits, mirrored from the spatial package so the config stays a leaf.
const (
	maxGridWidth  = 10
	maxGridHeight = 10
	maxGridDepth  = 5
)

var (
	hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	effectNames     = map[string]bool{
		"": true, "none": true, "radial_fade": true, "wave": true, "ripple": true, "layer_cascade": true,
	}
)

// Load reads configuration from a YAML file and applies environment
// variable overrides (LIGHTSCAPE_SECTION_KEY).
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Lightscape",
		},
		Database: DatabaseConfig{
			Path:        "./data/lightscape.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lightscape",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
			SampleEvery:   60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Grid: GridConfig{
			Width:  3,
			Height: 3,
			Depth:  3,
		},
		Effect: EffectConfig{
			Speed:          50,
			Intensity:      100,
			TickIntervalMS: 16,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIGHTSCAPE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("LIGHTSCAPE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LIGHTSCAPE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LIGHTSCAPE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("LIGHTSCAPE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("LIGHTSCAPE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
		errs = append(errs, "api.tls requires cert_file and key_file")
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}
	if c.InfluxDB.SampleEvery < 1 {
		errs = append(errs, "influxdb.sample_every must be at least 1")
	}

	errs = append(errs, c.Grid.validate()...)
	errs = append(errs, c.Effect.validate()...)
	errs = append(errs, validateDevices(c.Devices)...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (g GridConfig) validate() []string {
	var errs []string
	if g.Width < 1 || g.Width > maxGridWidth {
		errs = append(errs, fmt.Sprintf("grid.width must be between 1 and %d", maxGridWidth))
	}
	if g.Height < 1 || g.Height > maxGridHeight {
		errs = append(errs, fmt.Sprintf("grid.height must be between 1 and %d", maxGridHeight))
	}
	if g.Depth < 1 || g.Depth > maxGridDepth {
		errs = append(errs, fmt.Sprintf("grid.depth must be between 1 and %d", maxGridDepth))
	}
	return errs
}

func (e EffectConfig) validate() []string {
	var errs []string
	if !effectNames[strings.ToLower(e.Default)] {
		errs = append(errs, fmt.Sprintf("effect.default %q is not a known effect", e.Default))
	}
	if e.Speed < 1 || e.Speed > 100 {
		errs = append(errs, "effect.speed must be between 1 and 100")
	}
	if e.Intensity < 0 || e.Intensity > 100 {
		errs = append(errs, "effect.intensity must be between 0 and 100")
	}
	if e.TickIntervalMS < 1 {
		errs = append(errs, "effect.tick_interval_ms must be positive")
	}
	for name, v := range map[string]string{"base_color": e.BaseColor, "target_color": e.TargetColor} {
		if v != "" && !hexColorPattern.MatchString(v) {
			errs = append(errs, fmt.Sprintf("effect.%s %q is not a hex colour", name, v))
		}
	}
	return errs
}

var errDeviceConfig = errors.New("invalid device")

func validateDevices(devices []DeviceConfig) []string {
	var errs []string
	seen := make(map[string]bool, len(devices))
	for i, d := range devices {
		if err := d.validate(); err != nil {
			errs = append(errs, fmt.Sprintf("devices[%d]: %v", i, err))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Sprintf("devices[%d]: duplicate id %q", i, d.ID))
		}
		seen[d.ID] = true
	}
	return errs
}

func (d DeviceConfig) validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", errDeviceConfig)
	}
	if d.LEDs < 0 {
		return fmt.Errorf("%w: leds must not be negative", errDeviceConfig)
	}
	for _, z := range d.Zones {
		if z.LEDs < 0 {
			return fmt.Errorf("%w: zone %q leds must not be negative", errDeviceConfig, z.Name)
		}
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTickInterval returns the effect tick interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Effect.TickIntervalMS) * time.Millisecond
}
