/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/mq"
	"github.com/expensely/ledger/internal/services"
	"github.com/expensely/ledger/internal/storage"
	"github.com/expensely/ledger/internal/worker"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Archives report snapshots as ledger events arrive",
	Long: `Consumes ledger events from MQ_BACKEND and rewrites the monthly and
yearly report snapshots they affect in STORAGE_BACKEND. Usage:

	ledger worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		dialect, err := db.DialectFor(cfg.Database.Driver)
		if err != nil {
			return err
		}

		backend, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("mq: %w", err)
		}
		if backend == nil {
			return errors.New("worker needs MQ_BACKEND to be set")
		}
		bus, err := mq.NewEventBus(backend, cfg.MQ.Channel, logger)
		if err != nil {
			_ = backend.Close()
			return err
		}
		defer bus.Close()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if objects == nil {
			return errors.New("worker needs STORAGE_BACKEND to be set")
		}

		w := worker.NewReportWorker(
			bus,
			services.NewReportService(conn, dialect),
			storage.NewReportArchive(objects),
			logger,
		)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
