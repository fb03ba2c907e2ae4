package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validationf("bad %s", "input"), KindValidation},
		{NotFoundf("expense %d", 3), KindNotFound},
		{fmt.Errorf("register: %w", ErrDuplicateAccount), KindDuplicateAccount},
		{ErrInvalidCredential, KindInvalidCredential},
		{ErrNoChangeRequested, KindNoChangeRequested},
		{ErrConflict, KindConflict},
		{StoreError(errors.New("disk full")), KindStore},
		{errors.New("anything else"), KindStore},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), tt.err.Error())
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := StoreError(cause)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)

	notFound := NotFoundf("expense 1")
	assert.Same(t, notFound, StoreError(notFound))
	assert.NoError(t, StoreError(nil))
}

func TestDate_JSONAndSQL(t *testing.T) {
	d := NewDate(2025, time.November, 19)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-11-19"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, d.Equal(decoded.Time))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-11-19", v)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2025, 11, 19, 0, 0, 0, 0, time.FixedZone("", 0))))
	assert.Equal(t, d, scanned)
	require.NoError(t, scanned.Scan([]byte("2025-11-19T00:00:00Z")))
	assert.Equal(t, d, scanned)
	assert.Error(t, scanned.Scan(nil))
	assert.Error(t, scanned.Scan(42))

	assert.Error(t, json.Unmarshal([]byte(`"19/11/2025"`), &decoded))
}

func TestOptional_Unmarshal(t *testing.T) {
	var patch ExpensePatch
	require.NoError(t, json.Unmarshal([]byte(`{"note": null, "category": "", "amount": 12.5}`), &patch))

	assert.True(t, patch.Note.Set)
	assert.True(t, patch.Note.Null)
	assert.True(t, patch.Category.Set)
	assert.False(t, patch.Category.Null)
	assert.Equal(t, "", patch.Category.Value)
	assert.True(t, patch.Amount.Set)
	assert.True(t, decimal.RequireFromString("12.5").Equal(patch.Amount.Value))
	assert.False(t, patch.Date.Set)
	assert.False(t, patch.UserID.Set)
	assert.False(t, patch.Empty())

	var empty ExpensePatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.Empty())
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("50.75")))
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01")))

	for _, raw := range []string{"0", "-1", "1.005", "1000000000000000"} {
		err := ValidateAmount(decimal.RequireFromString(raw))
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(5075), ToCents(decimal.RequireFromString("50.75")))
	assert.True(t, decimal.RequireFromString("200.75").Equal(FromCents(20075)))

	assert.Equal(t, int64(1001), CeilCents(decimal.RequireFromString("10.001")))
	assert.Equal(t, int64(1000), FloorCents(decimal.RequireFromString("10.009")))
	assert.Equal(t, int64(1000), CeilCents(decimal.RequireFromString("10")))
	assert.Equal(t, int64(9223372036854775807), FloorCents(decimal.RequireFromString("1e30")))
}

func TestExpenseInput_Normalize(t *testing.T) {
	in := ExpenseInput{Category: " Food ", Amount: decimal.RequireFromString("50.75"), UserID: 1}
	exp, err := in.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Food", exp.Category)
	assert.Equal(t, Today(), exp.Date)
	assert.Nil(t, exp.Note)

	_, err = ExpenseInput{Amount: decimal.NewFromInt(1), UserID: 1}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ExpenseInput{Category: "Food", Amount: decimal.NewFromInt(1)}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilterCriteria_Validate(t *testing.T) {
	assert.NoError(t, NewFilterCriteria().Validate())

	neg := decimal.NewFromInt(-1)
	zero := int64(0)
	blank := "  "
	bad := []FilterCriteria{
		{Skip: -1},
		{Limit: -1},
		{MinAmount: &neg},
		{MaxAmount: &neg},
		{UserID: &zero},
		{Category: &blank},
	}
	for _, c := range bad {
		assert.ErrorIs(t, c.Validate(), ErrValidation)
	}
}

func TestWindows(t *testing.T) {
	w, err := MonthWindow(2024, time.December)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.December, 1), w.From)
	assert.Equal(t, NewDate(2025, time.January, 1), w.To)
	assert.True(t, w.Contains(NewDate(2024, time.December, 31)))
	assert.False(t, w.Contains(NewDate(2025, time.January, 1)))

	y, err := YearWindow(2024)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.January, 1), y.To)

	_, err = MonthWindow(2024, 13)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = YearWindow(0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLedgerEvent_RoundTrip(t *testing.T) {
	evt := LedgerEvent{
		Type:       EventExpenseUpdated,
		ExpenseID:  7,
		UserID:     1,
		Dates:      []Date{NewDate(2025, 1, 31), NewDate(2025, 2, 1)},
		OccurredAt: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := evt.ToJSON()
	require.NoError(t, err)

	decoded, err := LedgerEventFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, evt, decoded)

	_, err = LedgerEventFromJSON([]byte(`{"type":"expense.archived"}`))
	assert.Error(t, err)
}
