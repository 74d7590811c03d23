// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manage

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/realestate/internal/platform/migration"
)

// ErrNoDatabase is returned by migrate when DATABASE_URL is empty.
var ErrNoDatabase = errors.New("manage: DATABASE_URL is required for migrate")

func newMigrateCommand(env *Environment) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if env.Config.DatabaseURL == "" {
				return ErrNoDatabase
			}
			if path == "" {
				path = env.Config.MigrationPath
			}
			return nil
		},
		// Bare "migrate" behaves like "migrate up".
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrateUp(env, path)
		},
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "migrations directory (defaults to MIGRATION_PATH)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrateUp(env, path)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migration.RunDown(env.Config.DatabaseURL, path, steps, env.Logger); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Rolled back %d migration(s).\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := migration.CurrentStatus(env.Config.DatabaseURL, path, env.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Out, FormatStatus(current))
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func migrateUp(env *Environment, path string) error {
	if err := migration.RunUp(env.Config.DatabaseURL, path, env.Logger); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Migrations applied.")
	return nil
}

// FormatStatus renders a schema status line.
func FormatStatus(status migration.Status) string {
	switch {
	case status.Empty:
		return "No migrations applied."
	case status.Dirty:
		return fmt.Sprintf("Version %d (dirty: fix the failed migration, then force the version).", status.Version)
	default:
		return fmt.Sprintf("Version %d.", status.Version)
	}
}
