package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

// LedgerEvent is published after a committed mutation. Dates lists every
// calendar day whose reports the mutation affected; an update that moves an
// entry carries both its old and new dates.
type LedgerEvent struct {
	Type       EventType `json:"type"`
	ExpenseID  int64     `json:"expense_id"`
	UserID     int64     `json:"user_id"`
	Dates      []Date    `json:"dates"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToJSON encodes the event for publishing.
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes a published event.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, fmt.Errorf("decode ledger event: %w", err)
	}
	switch e.Type {
	case EventExpenseCreated, EventExpenseUpdated, EventExpenseDeleted:
	default:
		return LedgerEvent{}, fmt.Errorf("unknown ledger event type %q", e.Type)
	}
	return e, nil
}
