package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/config"
)

// newRootCmd builds the lightscape command tree.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "lightscape",
		Short: "Spatial lighting controller",
		Long: `Lightscape maps LED devices onto a 3D grid and drives them with
spatial effects. Colours are published to protocol bridges over MQTT.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(),
		"configuration file (env LIGHTSCAPE_CONFIG)")

	root.AddCommand(
		serveCmd(&configPath),
		layoutsCmd(&configPath),
		checkCmd(&configPath),
		versionCmd(),
	)
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the controller, effect engine and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configPath)
		},
	}
}

func checkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(out, "%s: configuration OK\n", *configPath) //nolint:errcheck // Terminal output
			fmt.Fprintf(out, "  grid     %dx%dx%d\n", cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Depth)
			fmt.Fprintf(out, "  devices  %d\n", len(cfg.Devices))
			fmt.Fprintf(out, "  mqtt     %s\n", enabled(cfg.MQTT.Enabled))
			fmt.Fprintf(out, "  influxdb %s\n", enabled(cfg.InfluxDB.Enabled))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lightscape %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
