package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/config"
	"github.com/Wolfieeewolf/lightscape/internal/infrastructure/database"
	"github.com/Wolfieeewolf/lightscape/internal/layout"
	"github.com/Wolfieeewolf/lightscape/migrations"
)

var (
	colorHeader = color.New(color.Bold)
	colorName   = color.New(color.FgCyan, color.Bold)
	colorMuted  = color.New(color.FgWhite, color.Faint)
	colorWarn   = color.New(color.FgYellow)
)

func layoutsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List saved grid layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLayouts(cmd.Context(), *configPath, func(repo layout.Repository) error {
				list, err := repo.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing layouts: %w", err)
				}
				printLayouts(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id-or-name>",
		Short: "Delete a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLayouts(cmd.Context(), *configPath, func(repo layout.Repository) error {
				id := args[0]
				if s, err := repo.GetByName(cmd.Context(), id); err == nil {
					id = s.ID
				} else if !errors.Is(err, layout.ErrLayoutNotFound) {
					return err
				}
				if err := repo.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("deleting layout %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

// withLayouts opens the configured database, applies migrations and hands
// a layout repository to fn.
func withLayouts(ctx context.Context, configPath string, fn func(layout.Repository) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-mostly CLI session

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return fn(layout.NewSQLiteRepository(db.DB))
}

func printLayouts(w io.Writer, list []layout.Summary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No saved layouts.")
		return
	}

	colorHeader.Fprintf(w, "%-24s %-8s %-12s %s\n", "NAME", "GRID", "ASSIGNMENTS", "UPDATED") //nolint:errcheck // Terminal output
	for _, s := range list {
		d := s.Dimensions
		colorName.Fprintf(w, "%-24s ", s.Name) //nolint:errcheck // Terminal output
		fmt.Fprintf(w, "%-8s %-12d ", fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Depth), s.AssignmentCount)
		colorMuted.Fprintln(w, s.UpdatedAt.Local().Format("2006-01-02 15:04")) //nolint:errcheck // Terminal output
		if s.Description != "" {
			colorMuted.Fprintf(w, "  %s\n", s.Description) //nolint:errcheck // Terminal output
		}
		if s.RequiresUserPosition {
			colorWarn.Fprintln(w, "  requires a user position") //nolint:errcheck // Terminal output
		}
	}
}
