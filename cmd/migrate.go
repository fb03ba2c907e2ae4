/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/expensely/ledger/internal/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateUp(cfg); err != nil {
				return fmt.Errorf("migrate up failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("--steps must not be negative")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateDown(cfg, steps); err != nil {
				return fmt.Errorf("migrate down failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back (0 = all)")
	return cmd
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd())
}
