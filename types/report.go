package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the sum of amounts recorded under one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Report aggregates a calendar window. Month is nil for yearly reports.
type Report struct {
	Year       int             `json:"year"`
	Month      *int            `json:"month,omitempty"`
	From       Date            `json:"from"`
	To         Date            `json:"to"`
	Categories []CategoryTotal `json:"categories"`
	Total      decimal.Decimal `json:"total"`
}

// Window is a half-open date range [From, To).
type Window struct {
	From Date
	To   Date
}

// MonthWindow returns the window covering one calendar month.
func MonthWindow(year int, month time.Month) (Window, error) {
	if err := validateYear(year); err != nil {
		return Window{}, err
	}
	if month < time.January || month > time.December {
		return Window{}, Validationf("month must be between 1 and 12")
	}
	from := NewDate(year, month, 1)
	return Window{From: from, To: DateOf(from.AddDate(0, 1, 0))}, nil
}

// YearWindow returns the window covering one calendar year.
func YearWindow(year int) (Window, error) {
	if err := validateYear(year); err != nil {
		return Window{}, err
	}
	from := NewDate(year, time.January, 1)
	return Window{From: from, To: DateOf(from.AddDate(1, 0, 0))}, nil
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.From.Time) && d.Before(w.To.Time)
}

func validateYear(year int) error {
	if year < 1 || year > 9999 {
		return Validationf("year must be between 1 and 9999")
	}
	return nil
}
