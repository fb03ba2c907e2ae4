package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/types"
)

// CategoryService manages the registry of known category names.
type CategoryService struct {
	conn    *sql.DB
	dialect db.Dialect
}

func NewCategoryService(conn *sql.DB, dialect db.Dialect) *CategoryService {
	return &CategoryService{conn: conn, dialect: dialect}
}

func (s *CategoryService) Create(ctx context.Context, name string) (types.Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return types.Category{}, err
	}

	var category types.Category
	err = inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		category, err = r.categories.Create(ctx, name)
		return err
	})
	return category, err
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	var categories []types.Category
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		categories, err = r.categories.List(ctx)
		return err
	})
	return categories, err
}

func (s *CategoryService) Rename(ctx context.Context, id int64, name string) (types.Category, error) {
	if err := validateID(id); err != nil {
		return types.Category{}, err
	}
	name, err := categoryName(name)
	if err != nil {
		return types.Category{}, err
	}

	var category types.Category
	err = inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		category, err = r.categories.Rename(ctx, id, name)
		return err
	})
	return category, err
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	return inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		return r.categories.Delete(ctx, id)
	})
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.Validationf("category name is required")
	}
	return name, nil
}
