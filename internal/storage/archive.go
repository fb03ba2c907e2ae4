package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/expensely/ledger/types"
)

const reportContentType = "application/json"

// ReportArchive stores report snapshots as JSON documents.
type ReportArchive struct {
	store ObjectStorage
}

func NewReportArchive(store ObjectStorage) *ReportArchive {
	return &ReportArchive{store: store}
}

// ReportKey returns reports/YYYY/MM.json for a monthly report and
// reports/YYYY.json for a yearly one.
func ReportKey(year int, month *int) string {
	if month == nil {
		return fmt.Sprintf("reports/%04d.json", year)
	}
	return fmt.Sprintf("reports/%04d/%02d.json", year, *month)
}

// PutReport overwrites the snapshot for the report's window.
func (a *ReportArchive) PutReport(ctx context.Context, report types.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	key := ReportKey(report.Year, report.Month)
	if err := a.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), reportContentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// GetReport loads a snapshot. A missing snapshot is types.ErrNotFound.
func (a *ReportArchive) GetReport(ctx context.Context, year int, month *int) (types.Report, error) {
	key := ReportKey(year, month)
	rc, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return types.Report{}, types.NotFoundf("report snapshot %s", key)
		}
		return types.Report{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer rc.Close()

	var report types.Report
	if err := json.NewDecoder(rc).Decode(&report); err != nil {
		return types.Report{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return report, nil
}
