package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/types"
	"github.com/shopspring/decimal"
)

// ReportService aggregates expenses per category over calendar windows.
// Each call reads the window in its own transaction.
type ReportService struct {
	conn    *sql.DB
	dialect db.Dialect
}

func NewReportService(conn *sql.DB, dialect db.Dialect) *ReportService {
	return &ReportService{conn: conn, dialect: dialect}
}

func (s *ReportService) Monthly(ctx context.Context, year, month int) (types.Report, error) {
	w, err := types.MonthWindow(year, time.Month(month))
	if err != nil {
		return types.Report{}, err
	}
	return s.report(ctx, w, year, &month)
}

func (s *ReportService) Yearly(ctx context.Context, year int) (types.Report, error) {
	w, err := types.YearWindow(year)
	if err != nil {
		return types.Report{}, err
	}
	return s.report(ctx, w, year, nil)
}

func (s *ReportService) report(ctx context.Context, w types.Window, year int, month *int) (types.Report, error) {
	var sums map[string]int64
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		sums, err = r.expenses.CategorySums(ctx, w)
		return err
	})
	if err != nil {
		return types.Report{}, err
	}

	categories, total := Aggregate(sums)
	return types.Report{
		Year:       year,
		Month:      month,
		From:       w.From,
		To:         w.To,
		Categories: categories,
		Total:      total,
	}, nil
}

// Aggregate converts per-category cent sums into totals sorted by category
// name. Categories with a zero sum are omitted, and the result is never nil.
func Aggregate(sums map[string]int64) ([]types.CategoryTotal, decimal.Decimal) {
	totals := make([]types.CategoryTotal, 0, len(sums))
	grand := decimal.Zero
	for category, cents := range sums {
		if cents == 0 {
			continue
		}
		amount := types.FromCents(cents)
		totals = append(totals, types.CategoryTotal{Category: category, Total: amount})
		grand = grand.Add(amount)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Category < totals[j].Category
	})
	return totals, grand
}
