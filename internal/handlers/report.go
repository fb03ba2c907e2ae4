package handlers

import (
	"net/http"

	"github.com/expensely/ledger/internal/services"
	"github.com/go-chi/chi/v5"
)

// ReportHandler serves per-category spending summaries.
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ReportRouter registers report routes on the given router.
func ReportRouter(r chi.Router, reports *services.ReportService) {
	handler := NewReportHandler(reports)

	r.Get("/monthly/{year}/{month}", handler.Monthly)
	r.Get("/yearly/{year}", handler.Yearly)
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, err := parseInt(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := parseInt(r, "month")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.reports.Monthly(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Yearly(w http.ResponseWriter, r *http.Request) {
	year, err := parseInt(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.reports.Yearly(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
