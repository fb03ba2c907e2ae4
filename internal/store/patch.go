package store

import (
	"fmt"
	"strings"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/types"
)

// Assignments is the SET list of an UPDATE built from a patch. Args holds one
// value per assignment, in column order.
type Assignments struct {
	Columns []string
	Set     string
	Args    []any
}

// ApplyPatch emits an assignment for every present field of p and nothing
// for absent ones. A patch with no present field fails with
// types.ErrNoChangeRequested.
func ApplyPatch(p types.ExpensePatch, dialect db.Dialect) (Assignments, error) {
	if p.Empty() {
		return Assignments{}, types.ErrNoChangeRequested
	}
	if err := validatePatch(p); err != nil {
		return Assignments{}, err
	}

	b := &builder{dialect: dialect}
	var columns, parts []string
	assign := func(column string, v any) {
		columns = append(columns, column)
		parts = append(parts, fmt.Sprintf("%s = %s", column, b.bind(v)))
	}

	if p.Amount.Set {
		assign("amount_cents", types.ToCents(p.Amount.Value))
	}
	if p.Date.Set {
		assign("date", p.Date.Value)
	}
	if p.Category.Set {
		assign("category", strings.TrimSpace(p.Category.Value))
	}
	if p.Note.Set {
		if p.Note.Null {
			assign("note", nil)
		} else {
			assign("note", p.Note.Value)
		}
	}
	if p.UserID.Set {
		assign("user_id", p.UserID.Value)
	}

	return Assignments{
		Columns: columns,
		Set:     strings.Join(parts, ", "),
		Args:    b.args,
	}, nil
}

// Merge returns e with the present fields of p applied, matching what a
// read after ApplyPatch's update returns.
func Merge(e types.Expense, p types.ExpensePatch) types.Expense {
	if p.Amount.Set {
		e.Amount = p.Amount.Value
	}
	if p.Date.Set {
		e.Date = p.Date.Value
	}
	if p.Category.Set {
		e.Category = strings.TrimSpace(p.Category.Value)
	}
	if p.Note.Set {
		if p.Note.Null {
			e.Note = nil
		} else {
			note := p.Note.Value
			e.Note = &note
		}
	}
	if p.UserID.Set {
		e.UserID = p.UserID.Value
	}
	return e
}

func validatePatch(p types.ExpensePatch) error {
	if p.Amount.Set {
		if p.Amount.Null {
			return types.Validationf("amount cannot be null")
		}
		if err := types.ValidateAmount(p.Amount.Value); err != nil {
			return err
		}
	}
	if p.Date.Set && p.Date.Null {
		return types.Validationf("date cannot be null")
	}
	if p.Category.Set && (p.Category.Null || strings.TrimSpace(p.Category.Value) == "") {
		return types.Validationf("category cannot be empty")
	}
	if p.UserID.Set && (p.UserID.Null || p.UserID.Value <= 0) {
		return types.Validationf("user_id must be positive")
	}
	return nil
}
