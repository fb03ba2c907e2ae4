package types

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	// MaxAmount bounds a single entry so its value in cents fits in int64.
	MaxAmount = decimal.New(1, 15)

	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// Expense is a dated, categorized ledger entry owned by a User.
type Expense struct {
	// ID is the store-assigned identifier of the entry. It is stable for the
	// lifetime of the row.
	ID int64 `json:"id" db:"id"`

	// Amount is the positive monetary value of the entry, with at most two
	// decimal places. It is persisted as integer cents.
	Amount decimal.Decimal `json:"amount" db:"amount_cents"`

	// Date is the calendar day the expense occurred.
	Date Date `json:"date" db:"date"`

	// Category is a free-form label used for filtering and reports. It is
	// not a reference to the category registry.
	Category string `json:"category" db:"category"`

	// Note is optional free text. Nil means no note.
	Note *string `json:"note" db:"note"`

	// UserID identifies the owning user.
	UserID int64 `json:"user_id" db:"user_id"`
}

// ExpenseInput carries the client-supplied fields of a new Expense.
type ExpenseInput struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     *string         `json:"note,omitempty"`
	Date     *Date           `json:"date,omitempty"`
	UserID   int64           `json:"user_id"`
}

// Normalize validates the input and returns the Expense it describes.
// A missing date defaults to today.
func (in ExpenseInput) Normalize() (Expense, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return Expense{}, Validationf("category is required")
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return Expense{}, err
	}
	if in.UserID <= 0 {
		return Expense{}, Validationf("user_id must be positive")
	}

	date := Today()
	if in.Date != nil {
		date = *in.Date
	}

	return Expense{
		Amount:   in.Amount,
		Date:     date,
		Category: category,
		Note:     in.Note,
		UserID:   in.UserID,
	}, nil
}

// ExpensePatch is a sparse update. Absent fields keep their current value;
// present fields overwrite it, including empty strings.
type ExpensePatch struct {
	Amount   Optional[decimal.Decimal] `json:"amount"`
	Date     Optional[Date]            `json:"date"`
	Category Optional[string]          `json:"category"`
	Note     Optional[string]          `json:"note"`
	UserID   Optional[int64]           `json:"user_id"`
}

// Empty reports whether no field is present.
func (p ExpensePatch) Empty() bool {
	return !p.Amount.Set && !p.Date.Set && !p.Category.Set && !p.Note.Set && !p.UserID.Set
}

// ValidateAmount enforces a positive amount with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return Validationf("amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return Validationf("amount must have at most two decimal places")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return Validationf("amount must be less than %s", MaxAmount)
	}
	return nil
}

// ToCents converts a validated amount to integer cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}

// FromCents converts integer cents to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CeilCents converts a lower bound to cents, rounding up and saturating at
// the int64 range.
func CeilCents(amount decimal.Decimal) int64 {
	return clampCents(amount.Shift(2).Ceil())
}

// FloorCents converts an upper bound to cents, rounding down and saturating
// at the int64 range.
func FloorCents(amount decimal.Decimal) int64 {
	return clampCents(amount.Shift(2).Floor())
}

func clampCents(cents decimal.Decimal) int64 {
	if cents.GreaterThan(maxCents) {
		return math.MaxInt64
	}
	return cents.IntPart()
}
