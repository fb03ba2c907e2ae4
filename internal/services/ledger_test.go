package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/db/dbtest"
	"github.com/expensely/ledger/internal/mq"
	"github.com/expensely/ledger/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, evt types.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) last() types.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type LedgerSuite struct {
	suite.Suite
	ctx       context.Context
	conn      *sql.DB
	publisher *recordingPublisher
	ledger    *LedgerService
	reports   *ReportService
	ownerID   int64
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.conn = dbtest.NewSQLite(s.T())
	s.publisher = &recordingPublisher{}
	s.ledger = NewLedgerService(s.conn, db.SQLite, s.publisher, nil)
	s.reports = NewReportService(s.conn, db.SQLite)
	s.ownerID = dbtest.SeedUser(s.T(), s.conn, "owner@example.com")
}

func (s *LedgerSuite) create(amount string, date types.Date, category string) types.Expense {
	e, err := s.ledger.Create(s.ctx, types.ExpenseInput{
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Date:     &date,
		UserID:   s.ownerID,
	})
	require.NoError(s.T(), err)
	return e
}

func (s *LedgerSuite) TestInsertReadPatchDeleteScenario() {
	t := s.T()
	created := s.create("50.75", types.NewDate(2025, 11, 19), "Food")

	got, err := s.ledger.Get(s.ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50.75").Equal(got.Amount))
	assert.Equal(t, types.NewDate(2025, 11, 19), got.Date)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, s.ownerID, got.UserID)
	assert.Nil(t, got.Note)

	patched, err := s.ledger.Patch(s.ctx, created.ID, types.ExpensePatch{Note: types.Some("updated")})
	require.NoError(t, err)
	require.NotNil(t, patched.Note)
	assert.Equal(t, "updated", *patched.Note)

	reread, err := s.ledger.Get(s.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, patched, reread)
	assert.True(t, got.Amount.Equal(reread.Amount))
	assert.Equal(t, got.Date, reread.Date)
	assert.Equal(t, got.Category, reread.Category)

	require.NoError(t, s.ledger.Delete(s.ctx, created.ID))
	_, err = s.ledger.Get(s.ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.ledger.Delete(s.ctx, created.ID), types.ErrNotFound)
}

func (s *LedgerSuite) TestMonthlyReportScenario() {
	t := s.T()
	s.create("50.75", types.NewDate(2025, 11, 3), "Food")
	s.create("150.00", types.NewDate(2025, 11, 28), "Food")
	s.create("12.00", types.NewDate(2025, 11, 10), "Transport")
	s.create("999.00", types.NewDate(2025, 10, 31), "Food")

	report, err := s.reports.Monthly(s.ctx, 2025, 11)
	require.NoError(t, err)
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "Food", report.Categories[0].Category)
	assert.True(t, decimal.RequireFromString("200.75").Equal(report.Categories[0].Total))
	assert.True(t, decimal.RequireFromString("212.75").Equal(report.Total))

	yearly, err := s.reports.Yearly(s.ctx, 2025)
	require.NoError(t, err)
	assert.Nil(t, yearly.Month)
	assert.True(t, decimal.RequireFromString("1199.75").Equal(yearly.Categories[0].Total))

	empty, err := s.reports.Monthly(s.ctx, 2024, 11)
	require.NoError(t, err)
	assert.NotNil(t, empty.Categories)
	assert.Empty(t, empty.Categories)
	assert.True(t, empty.Total.IsZero())
}

func (s *LedgerSuite) TestReportValidation() {
	_, err := s.reports.Monthly(s.ctx, 2025, 13)
	assert.ErrorIs(s.T(), err, types.ErrValidation)
	_, err = s.reports.Yearly(s.ctx, 0)
	assert.ErrorIs(s.T(), err, types.ErrValidation)
}

func (s *LedgerSuite) TestCreateValidation() {
	t := s.T()
	cases := []types.ExpenseInput{
		{Category: "Food", Amount: decimal.NewFromInt(-5), UserID: s.ownerID},
		{Category: "", Amount: decimal.NewFromInt(5), UserID: s.ownerID},
		{Category: "Food", Amount: decimal.NewFromInt(5), UserID: 0},
		{Category: "Food", Amount: decimal.NewFromInt(5), UserID: s.ownerID + 1},
	}
	for _, in := range cases {
		_, err := s.ledger.Create(s.ctx, in)
		assert.ErrorIs(t, err, types.ErrValidation)
	}
	assert.Empty(t, s.publisher.events)
}

func (s *LedgerSuite) TestCreateDefaultsDateToToday() {
	e, err := s.ledger.Create(s.ctx, types.ExpenseInput{Category: "Food", Amount: decimal.NewFromInt(3), UserID: s.ownerID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), types.Today(), e.Date)
}

func (s *LedgerSuite) TestGetRejectsNonPositiveID() {
	_, err := s.ledger.Get(s.ctx, 0)
	assert.ErrorIs(s.T(), err, types.ErrValidation)
}

func (s *LedgerSuite) TestCancelledReportDoesNotFailOtherCallers() {
	t := s.T()
	s.create("50.75", types.NewDate(2025, 11, 19), "Food")

	// Hold the only SQLite connection so both callers queue for it.
	held, err := s.conn.BeginTx(s.ctx, nil)
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(s.ctx)
	errA := make(chan error, 1)
	go func() {
		_, err := s.reports.Monthly(ctxA, 2025, 11)
		errA <- err
	}()

	type result struct {
		report types.Report
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		r, err := s.reports.Monthly(context.Background(), 2025, 11)
		resB <- result{r, err}
	}()

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	require.NoError(t, held.Rollback())
	select {
	case b := <-resB:
		require.NoError(t, b.err)
		assert.True(t, decimal.RequireFromString("50.75").Equal(b.report.Total))
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func (s *LedgerSuite) TestReportSeesCommittedWrites() {
	t := s.T()
	s.create("10.00", types.NewDate(2025, 6, 1), "Food")
	before, err := s.reports.Monthly(s.ctx, 2025, 6)
	require.NoError(t, err)

	s.create("5.25", types.NewDate(2025, 6, 2), "Food")
	after, err := s.reports.Monthly(s.ctx, 2025, 6)
	require.NoError(t, err)
	assert.True(t, before.Total.Add(decimal.RequireFromString("5.25")).Equal(after.Total))
}

func (s *LedgerSuite) TestEmptyPatchOnMissingIDIsNoChange() {
	// An empty patch is rejected before the row is looked up.
	_, err := s.ledger.Patch(s.ctx, 4242, types.ExpensePatch{})
	assert.ErrorIs(s.T(), err, types.ErrNoChangeRequested)
	assert.NotErrorIs(s.T(), err, types.ErrNotFound)
}

func (s *LedgerSuite) TestEmptyPatchLeavesRowUnchanged() {
	t := s.T()
	e := s.create("10.00", types.NewDate(2025, 1, 1), "Food")
	published := len(s.publisher.events)

	_, err := s.ledger.Patch(s.ctx, e.ID, types.ExpensePatch{})
	assert.ErrorIs(t, err, types.ErrNoChangeRequested)

	got, err := s.ledger.Get(s.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.Len(t, s.publisher.events, published)
}

func (s *LedgerSuite) TestPatchMissingAndUnknownOwner() {
	_, err := s.ledger.Patch(s.ctx, 4242, types.ExpensePatch{Note: types.Some("x")})
	assert.ErrorIs(s.T(), err, types.ErrNotFound)

	e := s.create("10.00", types.NewDate(2025, 1, 1), "Food")
	_, err = s.ledger.Patch(s.ctx, e.ID, types.ExpensePatch{UserID: types.Some(s.ownerID + 7)})
	assert.ErrorIs(s.T(), err, types.ErrValidation)
}

func (s *LedgerSuite) TestPatchPublishesOldAndNewDates() {
	e := s.create("10.00", types.NewDate(2025, 1, 31), "Food")

	_, err := s.ledger.Patch(s.ctx, e.ID, types.ExpensePatch{Date: types.Some(types.NewDate(2025, 2, 1))})
	require.NoError(s.T(), err)

	evt := s.publisher.last()
	assert.Equal(s.T(), types.EventExpenseUpdated, evt.Type)
	assert.Equal(s.T(), []types.Date{types.NewDate(2025, 1, 31), types.NewDate(2025, 2, 1)}, evt.Dates)
}

func (s *LedgerSuite) TestPublishFailureDoesNotFailWrite() {
	s.publisher.err = errors.New("broker down")
	e := s.create("10.00", types.NewDate(2025, 1, 1), "Food")

	_, err := s.ledger.Get(s.ctx, e.ID)
	assert.NoError(s.T(), err)
}

func (s *LedgerSuite) TestFullEventQueueDoesNotStallWrites() {
	t := s.T()
	bus, err := mq.NewEventBus(mq.NewMemory(1), "ledger.events", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	ledger := NewLedgerService(s.conn, db.SQLite, bus, nil)

	ctx, cancel := context.WithTimeout(s.ctx, 500*time.Millisecond)
	defer cancel()
	for i := 0; i < 3; i++ {
		date := types.NewDate(2025, 11, 19)
		_, err := ledger.Create(ctx, types.ExpenseInput{
			Category: "Food",
			Amount:   decimal.RequireFromString("1.00"),
			Date:     &date,
			UserID:   s.ownerID,
		})
		require.NoError(t, err)
	}
	assert.NoError(t, ctx.Err())

	list, err := ledger.List(s.ctx, types.FilterCriteria{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func (s *LedgerSuite) TestListByCategoryAndUser() {
	t := s.T()
	s.create("1.00", types.NewDate(2025, 1, 1), "Food")
	s.create("2.00", types.NewDate(2025, 1, 2), "Rent")

	food, err := s.ledger.ListByCategory(s.ctx, "Food", 0, 10)
	require.NoError(t, err)
	assert.Len(t, food, 1)

	_, err = s.ledger.ListByCategory(s.ctx, "Games", 0, 10)
	assert.ErrorIs(t, err, types.ErrNotFound)

	mine, err := s.ledger.ListByUser(s.ctx, s.ownerID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	other := dbtest.SeedUser(t, s.conn, "other@example.com")
	theirs, err := s.ledger.ListByUser(s.ctx, other, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = s.ledger.ListByUser(s.ctx, other+10, 0, 10)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func (s *LedgerSuite) TestListValidatesBeforeStore() {
	neg := decimal.NewFromInt(-1)
	_, err := s.ledger.List(s.ctx, types.FilterCriteria{MinAmount: &neg, Limit: 10})
	assert.ErrorIs(s.T(), err, types.ErrValidation)
}

// Totals do not depend on the order rows were written.
func (s *LedgerSuite) TestReportIndependentOfInsertionOrder() {
	amounts := []string{"0.10", "0.20", "0.30", "19.99", "100.01"}
	d := types.NewDate(2025, 5, 5)
	for _, a := range amounts {
		s.create(a, d, "Misc")
	}
	forward, err := s.reports.Monthly(s.ctx, 2025, 5)
	require.NoError(s.T(), err)

	other := dbtest.NewSQLite(s.T())
	owner := dbtest.SeedUser(s.T(), other, "o@example.com")
	reversed := NewLedgerService(other, db.SQLite, nil, nil)
	for i := len(amounts) - 1; i >= 0; i-- {
		_, err := reversed.Create(s.ctx, types.ExpenseInput{Category: "Misc", Amount: decimal.RequireFromString(amounts[i]), Date: &d, UserID: owner})
		require.NoError(s.T(), err)
	}
	backward, err := NewReportService(other, db.SQLite).Monthly(s.ctx, 2025, 5)
	require.NoError(s.T(), err)

	assert.True(s.T(), decimal.RequireFromString("120.60").Equal(forward.Categories[0].Total))
	assert.True(s.T(), forward.Categories[0].Total.Equal(backward.Categories[0].Total))
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func TestAggregate(t *testing.T) {
	totals, grand := Aggregate(map[string]int64{"Travel": 2000, "Food": 20075, "Empty": 0})
	require.Len(t, totals, 2)
	assert.Equal(t, "Food", totals[0].Category)
	assert.Equal(t, "Travel", totals[1].Category)
	assert.True(t, decimal.RequireFromString("220.75").Equal(grand))

	none, grand := Aggregate(nil)
	assert.NotNil(t, none)
	assert.Empty(t, none)
	assert.True(t, grand.IsZero())
}

func TestLedgerPublishStampsTime(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewLedgerService(nil, db.SQLite, pub, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	svc.publish(context.Background(), types.EventExpenseDeleted, types.Expense{ID: 3, UserID: 4}, types.NewDate(2025, 1, 1))

	evt := pub.last()
	assert.Equal(t, int64(3), evt.ExpenseID)
	assert.Equal(t, int64(4), evt.UserID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), evt.OccurredAt)
}
