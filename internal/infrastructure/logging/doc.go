// Package logging provides structured logging for Lightscape.
//
// It wraps log/slog with JSON or text output, level filtering and default
// service/version fields. Configured from the logging section:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	grid.SetLogger(logger.Component("grid"))
//	logger.Info("engine started", "effect", "wave")
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
