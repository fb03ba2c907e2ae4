package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultLimit is the page size used when a caller does not ask for one.
const DefaultLimit = 10

// FilterCriteria narrows a listing of expenses. Every field is independent;
// a nil field places no constraint on its dimension.
type FilterCriteria struct {
	UserID   *int64
	Category *string

	// StartDate and EndDate are inclusive.
	StartDate *Date
	EndDate   *Date

	// MinAmount and MaxAmount are inclusive.
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal

	Skip  int
	Limit int
}

// NewFilterCriteria returns criteria with no constraints and the default page.
func NewFilterCriteria() FilterCriteria {
	return FilterCriteria{Limit: DefaultLimit}
}

// Validate rejects out-of-range bounds. It does not require StartDate to
// precede EndDate; an inverted range simply matches nothing.
func (c FilterCriteria) Validate() error {
	if c.Skip < 0 {
		return Validationf("skip must not be negative")
	}
	if c.Limit < 0 {
		return Validationf("limit must not be negative")
	}
	if c.UserID != nil && *c.UserID <= 0 {
		return Validationf("user_id must be positive")
	}
	if c.Category != nil && strings.TrimSpace(*c.Category) == "" {
		return Validationf("category must not be empty")
	}
	if c.MinAmount != nil && c.MinAmount.IsNegative() {
		return Validationf("min_amount must not be negative")
	}
	if c.MaxAmount != nil && c.MaxAmount.IsNegative() {
		return Validationf("max_amount must not be negative")
	}
	return nil
}
