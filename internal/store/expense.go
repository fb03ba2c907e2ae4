package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/dbx"
	"github.com/expensely/ledger/types"
)

const expenseColumns = `id, amount_cents, date, category, note, user_id`

// ExpenseRepository handles persistence for ledger entries.
type ExpenseRepository struct {
	conn    dbx.DBTX
	dialect db.Dialect
}

func NewExpenseRepository(conn dbx.DBTX, dialect db.Dialect) *ExpenseRepository {
	return &ExpenseRepository{conn: conn, dialect: dialect}
}

func (r *ExpenseRepository) Create(ctx context.Context, e types.Expense) (types.Expense, error) {
	query := r.dialect.Rebind(`
		INSERT INTO expenses (amount_cents, date, category, note, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`)
	err := r.conn.QueryRowContext(
		ctx,
		query,
		types.ToCents(e.Amount),
		e.Date,
		e.Category,
		nullString(e.Note),
		e.UserID,
	).Scan(&e.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.Expense{}, types.Validationf("user %d does not exist", e.UserID)
		}
		return types.Expense{}, types.StoreError(err)
	}
	return e, nil
}

func (r *ExpenseRepository) Get(ctx context.Context, id int64) (types.Expense, error) {
	query := r.dialect.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`)
	e, err := scanExpense(r.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Expense{}, types.NotFoundf("expense %d", id)
		}
		return types.Expense{}, types.StoreError(err)
	}
	return e, nil
}

// List returns the entries matching criteria in insertion order.
func (r *ExpenseRepository) List(ctx context.Context, criteria types.FilterCriteria) ([]types.Expense, error) {
	filter, err := BuildFilter(criteria, r.dialect)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` + filter.Where + ` ORDER BY id ` + filter.Window
	rows, err := r.conn.QueryContext(ctx, query, filter.Args...)
	if err != nil {
		return nil, types.StoreError(err)
	}
	defer rows.Close()

	expenses := make([]types.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, types.StoreError(err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.StoreError(err)
	}
	return expenses, nil
}

// Update writes the assignments to the entry with the given id.
func (r *ExpenseRepository) Update(ctx context.Context, id int64, set Assignments) error {
	if len(set.Args) == 0 {
		return types.ErrNoChangeRequested
	}

	args := append(append([]any{}, set.Args...), id)
	query := `UPDATE expenses SET ` + set.Set + ` WHERE id = ` + r.dialect.Placeholder(len(args))
	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.Validationf("user does not exist")
		}
		return types.StoreError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.StoreError(err)
	}
	if affected == 0 {
		return types.NotFoundf("expense %d", id)
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`DELETE FROM expenses WHERE id = $1`)
	result, err := r.conn.ExecContext(ctx, query, id)
	if err != nil {
		return types.StoreError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.StoreError(err)
	}
	if affected == 0 {
		return types.NotFoundf("expense %d", id)
	}
	return nil
}

// CategorySums returns the total cents per category for entries dated in
// [w.From, w.To). Categories without entries in the window are absent.
func (r *ExpenseRepository) CategorySums(ctx context.Context, w types.Window) (map[string]int64, error) {
	query := r.dialect.Rebind(`
		SELECT category, SUM(amount_cents)
		FROM expenses
		WHERE date >= $1 AND date < $2
		GROUP BY category`)
	rows, err := r.conn.QueryContext(ctx, query, w.From, w.To)
	if err != nil {
		return nil, types.StoreError(err)
	}
	defer rows.Close()

	sums := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, types.StoreError(err)
		}
		sums[category] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, types.StoreError(err)
	}
	return sums, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (types.Expense, error) {
	var (
		e     types.Expense
		cents int64
		note  sql.NullString
	)
	if err := row.Scan(&e.ID, &cents, &e.Date, &e.Category, &note, &e.UserID); err != nil {
		return types.Expense{}, err
	}
	e.Amount = types.FromCents(cents)
	if note.Valid {
		e.Note = &note.String
	}
	return e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
