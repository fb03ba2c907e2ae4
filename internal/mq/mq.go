// Package mq carries ledger events between the API server and the report
// worker over a pluggable broker.
package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expensely/ledger/config"
	"github.com/expensely/ledger/internal/logging"
	"github.com/expensely/ledger/types"
)

// Attribute keys set on every published ledger event.
const (
	AttrEventType = "event_type"
	AttrExpenseID = "expense_id"
)

// Message is a broker-agnostic delivery.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. A returned error asks the broker to redeliver.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Open builds the backend selected by cfg. It returns nil, nil when events
// are disabled.
func Open(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		return NewMemory(0), nil
	case config.BackendRabbitMQ:
		r, err := NewRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.BackendPubSub:
		p, err := NewPubSub(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
}

// EventBus publishes and consumes LedgerEvents on one channel.
type EventBus struct {
	backend Backend
	channel string
	logger  *slog.Logger
}

func NewEventBus(backend Backend, channel string, logger *slog.Logger) (*EventBus, error) {
	if backend == nil {
		return nil, errors.New("mq backend is required")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("mq channel is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &EventBus{
		backend: backend,
		channel: channel,
		logger:  logging.Component(logger, "mq"),
	}, nil
}

// PublishLedgerEvent implements services.EventPublisher.
func (b *EventBus) PublishLedgerEvent(ctx context.Context, evt types.LedgerEvent) error {
	data, err := evt.ToJSON()
	if err != nil {
		return err
	}
	attrs := map[string]string{
		AttrEventType: string(evt.Type),
		AttrExpenseID: fmt.Sprint(evt.ExpenseID),
	}
	id, err := b.backend.Publish(ctx, b.channel, data, attrs)
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	b.logger.DebugContext(ctx, "ledger event published", "message_id", id, logging.FieldEvent, string(evt.Type))
	return nil
}

// ConsumeLedgerEvents blocks until ctx ends or the backend fails, invoking
// fn for each event. Undecodable messages are logged and acknowledged so
// they are not redelivered forever.
func (b *EventBus) ConsumeLedgerEvents(ctx context.Context, fn func(ctx context.Context, evt types.LedgerEvent) error) error {
	return b.backend.Subscribe(ctx, b.channel, func(ctx context.Context, msg Message) error {
		evt, err := types.LedgerEventFromJSON(msg.Data)
		if err != nil {
			b.logger.WarnContext(ctx, "dropping malformed ledger event", "message_id", msg.ID, logging.FieldError, err)
			return nil
		}
		return fn(ctx, evt)
	})
}

func (b *EventBus) Close() error {
	return b.backend.Close()
}
