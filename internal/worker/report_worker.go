// Package worker rebuilds archived report snapshots when ledger events
// arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/expensely/ledger/internal/logging"
	"github.com/expensely/ledger/internal/storage"
	"github.com/expensely/ledger/types"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// EventSource delivers ledger events to a callback until ctx ends.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, fn func(ctx context.Context, evt types.LedgerEvent) error) error
}

// Reporter computes reports for calendar windows.
type Reporter interface {
	Monthly(ctx context.Context, year, month int) (types.Report, error)
	Yearly(ctx context.Context, year int) (types.Report, error)
}

// ReportWorker keeps monthly and yearly snapshots in the archive current.
type ReportWorker struct {
	source      EventSource
	reports     Reporter
	archive     *storage.ReportArchive
	logger      *slog.Logger
	concurrency int
}

func NewReportWorker(source EventSource, reports Reporter, archive *storage.ReportArchive, logger *slog.Logger) *ReportWorker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReportWorker{
		source:      source,
		reports:     reports,
		archive:     archive,
		logger:      logging.Component(logger, "report-worker"),
		concurrency: defaultConcurrency,
	}
}

// Run consumes events until ctx is cancelled. Cancellation is not an error.
func (w *ReportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "report worker started")
	err := w.source.ConsumeLedgerEvents(ctx, w.Handle)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "report worker stopped")
		return nil
	}
	return err
}

// Handle refreshes every monthly and yearly snapshot touched by evt. A
// failure is returned so the broker redelivers the event.
func (w *ReportWorker) Handle(ctx context.Context, evt types.LedgerEvent) error {
	start := time.Now()
	months, years := affected(evt.Dates)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, m := range months {
		m := m
		g.Go(func() error {
			report, err := w.reports.Monthly(gctx, m.year, m.month)
			if err != nil {
				return fmt.Errorf("monthly report %04d-%02d: %w", m.year, m.month, err)
			}
			return w.archive.PutReport(gctx, report)
		})
	}
	for _, y := range years {
		y := y
		g.Go(func() error {
			report, err := w.reports.Yearly(gctx, y)
			if err != nil {
				return fmt.Errorf("yearly report %04d: %w", y, err)
			}
			return w.archive.PutReport(gctx, report)
		})
	}

	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "snapshot refresh failed",
			logging.FieldEvent, string(evt.Type),
			logging.FieldExpenseID, evt.ExpenseID,
			logging.FieldError, err,
		)
		return err
	}

	w.logger.InfoContext(ctx, "snapshots refreshed",
		logging.FieldEvent, string(evt.Type),
		logging.FieldExpenseID, evt.ExpenseID,
		"months", len(months),
		"years", len(years),
		logging.FieldDuration, time.Since(start).Milliseconds(),
	)
	return nil
}

type yearMonth struct {
	year  int
	month int
}

// affected returns the distinct months and years covering dates, in
// ascending order.
func affected(dates []types.Date) ([]yearMonth, []int) {
	seenMonth := make(map[yearMonth]bool)
	seenYear := make(map[int]bool)
	var months []yearMonth
	var years []int
	for _, d := range dates {
		ym := yearMonth{year: d.Year(), month: int(d.Month())}
		if !seenMonth[ym] {
			seenMonth[ym] = true
			months = append(months, ym)
		}
		if !seenYear[ym.year] {
			seenYear[ym.year] = true
			years = append(years, ym.year)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	sort.Ints(years)
	return months, years
}
