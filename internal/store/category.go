package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/dbx"
	"github.com/expensely/ledger/types"
)

// CategoryRepository handles persistence for the category registry.
type CategoryRepository struct {
	conn    dbx.DBTX
	dialect db.Dialect
}

func NewCategoryRepository(conn dbx.DBTX, dialect db.Dialect) *CategoryRepository {
	return &CategoryRepository{conn: conn, dialect: dialect}
}

func (r *CategoryRepository) Create(ctx context.Context, name string) (types.Category, error) {
	category := types.Category{Name: name}
	query := r.dialect.Rebind(`INSERT INTO categories (name) VALUES ($1) RETURNING id`)
	if err := r.conn.QueryRowContext(ctx, query, name).Scan(&category.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, fmt.Errorf("%w: category %q already exists", types.ErrConflict, name)
		}
		return types.Category{}, types.StoreError(err)
	}
	return category, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id int64) (types.Category, error) {
	query := r.dialect.Rebind(`SELECT id, name FROM categories WHERE id = $1`)
	var category types.Category
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, types.NotFoundf("category %d", id)
		}
		return types.Category{}, types.StoreError(err)
	}
	return category, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, types.StoreError(err)
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var category types.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, types.StoreError(err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, types.StoreError(err)
	}
	return categories, nil
}

func (r *CategoryRepository) Rename(ctx context.Context, id int64, name string) (types.Category, error) {
	query := r.dialect.Rebind(`UPDATE categories SET name = $1 WHERE id = $2`)
	result, err := r.conn.ExecContext(ctx, query, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, fmt.Errorf("%w: category %q already exists", types.ErrConflict, name)
		}
		return types.Category{}, types.StoreError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Category{}, types.StoreError(err)
	}
	if affected == 0 {
		return types.Category{}, types.NotFoundf("category %d", id)
	}
	return types.Category{ID: id, Name: name}, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`DELETE FROM categories WHERE id = $1`)
	result, err := r.conn.ExecContext(ctx, query, id)
	if err != nil {
		return types.StoreError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.StoreError(err)
	}
	if affected == 0 {
		return types.NotFoundf("category %d", id)
	}
	return nil
}
