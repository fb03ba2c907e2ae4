package services

import (
	"context"
	"testing"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/db/dbtest"
	"github.com/expensely/ledger/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(dbtest.NewSQLite(t), db.SQLite)

	food, err := svc.Create(ctx, "  Food ")
	require.NoError(t, err)
	assert.Equal(t, "Food", food.Name)

	_, err = svc.Create(ctx, "Food")
	assert.ErrorIs(t, err, types.ErrConflict)
	_, err = svc.Create(ctx, " ")
	assert.ErrorIs(t, err, types.ErrValidation)

	renamed, err := svc.Rename(ctx, food.ID, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", renamed.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{{ID: food.ID, Name: "Groceries"}}, list)

	require.NoError(t, svc.Delete(ctx, food.ID))
	assert.ErrorIs(t, svc.Delete(ctx, food.ID), types.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 0), types.ErrValidation)
}
