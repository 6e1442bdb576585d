// Package config loads and validates Lightscape configuration.
//
// Values are resolved in order: built-in defaults, the YAML file, then
// LIGHTSCAPE_* environment variables. Credentials (MQTT password, InfluxDB
// token) belong in the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Grid.Width, cfg.Effect.Default)
package config
