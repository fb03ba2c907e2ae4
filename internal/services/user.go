package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/logging"
	"github.com/expensely/ledger/types"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input beyond 72 bytes.
const maxPasswordBytes = 72

// PasswordHasher produces and verifies salted one-way password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare runs in constant time with respect to the password.
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// UserService encapsulates registration and login.
type UserService struct {
	conn    *sql.DB
	dialect db.Dialect
	hasher  PasswordHasher
	logger  *slog.Logger
}

func NewUserService(conn *sql.DB, dialect db.Dialect, hasher PasswordHasher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &UserService{
		conn:    conn,
		dialect: dialect,
		hasher:  hasher,
		logger:  logging.Component(logger, "users"),
	}
}

// Register creates an account. An email already in use fails with
// types.ErrDuplicateAccount and writes nothing; the unique constraint on
// users.email settles concurrent registrations of the same address.
func (s *UserService) Register(ctx context.Context, reg types.Registration) (types.User, error) {
	name := strings.TrimSpace(reg.Name)
	email := strings.TrimSpace(reg.Email)
	if name == "" || email == "" || reg.Password == "" {
		return types.User{}, types.Validationf("name, email and password are required")
	}
	if len(reg.Password) > maxPasswordBytes {
		return types.User{}, types.Validationf("password must be at most %d bytes", maxPasswordBytes)
	}

	hashed, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return types.User{}, types.StoreError(err)
	}

	user := types.User{Name: name, Email: email, PasswordHash: hashed}
	err = inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		_, err := r.users.GetByEmail(ctx, email)
		if err == nil {
			return types.ErrDuplicateAccount
		}
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		user, err = r.users.Create(ctx, user)
		return err
	})
	if err != nil {
		return types.User{}, err
	}

	s.logger.InfoContext(ctx, "user registered", logging.FieldUserID, user.ID)
	return user, nil
}

// Login verifies credentials and returns the account id. An unknown email
// fails with types.ErrNotFound and a wrong password with
// types.ErrInvalidCredential.
func (s *UserService) Login(ctx context.Context, creds types.Credentials) (int64, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		return 0, types.Validationf("email and password are required")
	}

	var user types.User
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		user, err = r.users.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return 0, err
	}

	if err := s.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return 0, types.ErrInvalidCredential
		}
		return 0, types.StoreError(err)
	}
	return user.ID, nil
}
