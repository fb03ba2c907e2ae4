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

// UserRepository handles persistence for users.
type UserRepository struct {
	conn    dbx.DBTX
	dialect db.Dialect
}

func NewUserRepository(conn dbx.DBTX, dialect db.Dialect) *UserRepository {
	return &UserRepository{conn: conn, dialect: dialect}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	query := r.dialect.Rebind(`
		SELECT id, name, email, password_hash
		FROM users
		WHERE id = $1`)
	user, err := scanUser(r.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, types.NotFoundf("user %d", id)
		}
		return types.User{}, types.StoreError(err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := r.dialect.Rebind(`
		SELECT id, name, email, password_hash
		FROM users
		WHERE email = $1`)
	user, err := scanUser(r.conn.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, types.NotFoundf("user with email %q", email)
		}
		return types.User{}, types.StoreError(err)
	}
	return user, nil
}

// Create inserts the user. A taken email fails with types.ErrDuplicateAccount.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	query := r.dialect.Rebind(`
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`)
	if err := r.conn.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, fmt.Errorf("%w: %s", types.ErrDuplicateAccount, user.Email)
		}
		return types.User{}, types.StoreError(err)
	}
	return user, nil
}

func (r *UserRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	query := r.dialect.Rebind(`SELECT COUNT(1) FROM users WHERE email = $1`)
	var n int
	if err := r.conn.QueryRowContext(ctx, query, email).Scan(&n); err != nil {
		return 0, types.StoreError(err)
	}
	return n, nil
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	return user, err
}
