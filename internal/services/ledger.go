package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/logging"
	"github.com/expensely/ledger/internal/store"
	"github.com/expensely/ledger/types"
)

// EventPublisher delivers ledger events once a mutation has committed.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, evt types.LedgerEvent) error
}

// LedgerService encapsulates expense use-cases. Every operation runs in its
// own transaction.
type LedgerService struct {
	conn      *sql.DB
	dialect   db.Dialect
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewLedgerService constructs the service. publisher may be nil.
func NewLedgerService(conn *sql.DB, dialect db.Dialect, publisher EventPublisher, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LedgerService{
		conn:      conn,
		dialect:   dialect,
		publisher: publisher,
		logger:    logging.Component(logger, "ledger"),
		now:       time.Now,
	}
}

func (s *LedgerService) Create(ctx context.Context, in types.ExpenseInput) (types.Expense, error) {
	expense, err := in.Normalize()
	if err != nil {
		return types.Expense{}, err
	}

	err = inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		if err := requireOwner(ctx, r, expense.UserID); err != nil {
			return err
		}
		created, err := r.expenses.Create(ctx, expense)
		if err != nil {
			return err
		}
		expense = created
		return nil
	})
	if err != nil {
		return types.Expense{}, err
	}

	s.publish(ctx, types.EventExpenseCreated, expense, expense.Date)
	return expense, nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (types.Expense, error) {
	if err := validateID(id); err != nil {
		return types.Expense{}, err
	}

	var expense types.Expense
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		expense, err = r.expenses.Get(ctx, id)
		return err
	})
	return expense, err
}

// List returns the expenses matching criteria in insertion order.
func (s *LedgerService) List(ctx context.Context, criteria types.FilterCriteria) ([]types.Expense, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	var expenses []types.Expense
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		expenses, err = r.expenses.List(ctx, criteria)
		return err
	})
	return expenses, err
}

// ListByCategory returns one page of a category's expenses and fails with
// types.ErrNotFound when the page is empty.
func (s *LedgerService) ListByCategory(ctx context.Context, category string, skip, limit int) ([]types.Expense, error) {
	if strings.TrimSpace(category) == "" {
		return nil, types.Validationf("category is required")
	}

	criteria := types.FilterCriteria{Category: &category, Skip: skip, Limit: limit}
	expenses, err := s.List(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, types.NotFoundf("no expenses in category %q", category)
	}
	return expenses, nil
}

// ListByUser returns one page of the expenses owned by userID.
func (s *LedgerService) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]types.Expense, error) {
	if err := validateID(userID); err != nil {
		return nil, err
	}
	criteria := types.FilterCriteria{UserID: &userID, Skip: skip, Limit: limit}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	var expenses []types.Expense
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		if _, err := r.users.GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		expenses, err = r.expenses.List(ctx, criteria)
		return err
	})
	return expenses, err
}

// Patch overwrites the present fields of patch and leaves the rest intact.
// It returns the record as stored after the update.
func (s *LedgerService) Patch(ctx context.Context, id int64, patch types.ExpensePatch) (types.Expense, error) {
	if err := validateID(id); err != nil {
		return types.Expense{}, err
	}
	set, err := store.ApplyPatch(patch, s.dialect)
	if err != nil {
		return types.Expense{}, err
	}

	var before, after types.Expense
	err = inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		before, err = r.expenses.Get(ctx, id)
		if err != nil {
			return err
		}
		if patch.UserID.Set {
			if err := requireOwner(ctx, r, patch.UserID.Value); err != nil {
				return err
			}
		}
		if err := r.expenses.Update(ctx, id, set); err != nil {
			return err
		}
		after = store.Merge(before, patch)
		return nil
	})
	if err != nil {
		return types.Expense{}, err
	}

	dates := []types.Date{after.Date}
	if !before.Date.Equal(after.Date.Time) {
		dates = append([]types.Date{before.Date}, dates...)
	}
	s.publish(ctx, types.EventExpenseUpdated, after, dates...)
	return after, nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}

	var removed types.Expense
	err := inTx(ctx, s.conn, s.dialect, func(ctx context.Context, r repos) error {
		var err error
		removed, err = r.expenses.Get(ctx, id)
		if err != nil {
			return err
		}
		return r.expenses.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, types.EventExpenseDeleted, removed, removed.Date)
	return nil
}

// publish is best effort: the mutation has already committed, so a broker
// failure is logged and not returned.
func (s *LedgerService) publish(ctx context.Context, kind types.EventType, e types.Expense, dates ...types.Date) {
	if s.publisher == nil {
		return
	}
	evt := types.LedgerEvent{
		Type:       kind,
		ExpenseID:  e.ID,
		UserID:     e.UserID,
		Dates:      dates,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishLedgerEvent(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "failed to publish ledger event",
			logging.FieldEvent, string(kind),
			logging.FieldExpenseID, e.ID,
			logging.FieldError, err,
		)
	}
}

func requireOwner(ctx context.Context, r repos, userID int64) error {
	_, err := r.users.GetByID(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		return types.Validationf("user %d does not exist", userID)
	}
	return err
}

func validateID(id int64) error {
	if id <= 0 {
		return types.Validationf("id must be positive")
	}
	return nil
}
