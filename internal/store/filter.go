package store

import (
	"fmt"
	"strings"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/types"
)

// Filter is a parameterized WHERE predicate plus a LIMIT/OFFSET window.
// Args holds the predicate values followed by limit and offset, in the
// order their placeholders appear.
type Filter struct {
	Where  string
	Window string
	Args   []any
}

// builder accumulates predicate fragments and their bound values in step,
// so placeholder numbers always match argument positions.
type builder struct {
	dialect db.Dialect
	conds   []string
	args    []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *builder) where(column, op string, v any) {
	b.conds = append(b.conds, fmt.Sprintf("%s %s %s", column, op, b.bind(v)))
}

// BuildFilter turns criteria into a conjunction of the present constraints.
// Constraints are emitted in a fixed column order so equal criteria always
// yield identical text and arguments. Amount bounds compare integer cents:
// the lower bound rounds up and the upper bound rounds down.
func BuildFilter(c types.FilterCriteria, dialect db.Dialect) (Filter, error) {
	if err := c.Validate(); err != nil {
		return Filter{}, err
	}

	b := &builder{dialect: dialect}
	if c.UserID != nil {
		b.where("user_id", "=", *c.UserID)
	}
	if c.Category != nil {
		b.where("category", "=", *c.Category)
	}
	if c.StartDate != nil {
		b.where("date", ">=", *c.StartDate)
	}
	if c.EndDate != nil {
		b.where("date", "<=", *c.EndDate)
	}
	if c.MinAmount != nil {
		b.where("amount_cents", ">=", types.CeilCents(*c.MinAmount))
	}
	if c.MaxAmount != nil {
		b.where("amount_cents", "<=", types.FloorCents(*c.MaxAmount))
	}

	where := "1 = 1"
	if len(b.conds) > 0 {
		where = strings.Join(b.conds, " AND ")
	}

	limit := b.bind(c.Limit)
	offset := b.bind(c.Skip)

	return Filter{
		Where:  where,
		Window: fmt.Sprintf("LIMIT %s OFFSET %s", limit, offset),
		Args:   b.args,
	}, nil
}
