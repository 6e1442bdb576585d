// Lightscape - spatial lighting controller
//
// Lightscape places LED devices, zones and individual LEDs on a 3D grid and
// animates them with spatial effects (radial fade, wave, ripple, layer
// cascade). Colours reach the hardware through protocol bridges on MQTT.
//
//	lightscape serve              # run the controller and HTTP API
//	lightscape layouts            # list saved grid layouts
//	lightscape check              # validate the configuration file
//	lightscape version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getConfigPath returns the configuration file path.
// Uses LIGHTSCAPE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LIGHTSCAPE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
