package services

import (
	"context"
	"database/sql"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/dbx"
	"github.com/expensely/ledger/internal/store"
	"github.com/expensely/ledger/types"
)

// repos groups the repositories bound to one transaction.
type repos struct {
	expenses   *store.ExpenseRepository
	users      *store.UserRepository
	categories *store.CategoryRepository
}

// inTx runs fn as one unit of work. Begin and commit failures surface as
// store errors; errors that already carry a kind pass through.
func inTx(ctx context.Context, conn *sql.DB, dialect db.Dialect, fn func(ctx context.Context, r repos) error) error {
	err := dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, repos{
			expenses:   store.NewExpenseRepository(tx, dialect),
			users:      store.NewUserRepository(tx, dialect),
			categories: store.NewCategoryRepository(tx, dialect),
		})
	})
	return types.StoreError(err)
}
