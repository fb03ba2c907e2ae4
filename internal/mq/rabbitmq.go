package mq

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expensely/ledger/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ publishes to and consumes from queues on the default exchange.
type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cfg  config.RabbitMQConfig

	// amqp channels are not safe for concurrent publishes.
	mu       sync.Mutex
	declared map[string]bool
}

func NewRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQ, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set rabbitmq prefetch: %w", err)
		}
	}

	return &RabbitMQ{conn: conn, ch: ch, cfg: cfg, declared: make(map[string]bool)}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq queue name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureQueue(channel); err != nil {
		return "", err
	}

	msg := amqp.Publishing{
		ContentType: "application/json",
		MessageId:   messageID(),
		Timestamp:   time.Now().UTC(),
		Headers:     make(amqp.Table, len(attrs)),
		Body:        data,
	}
	if r.cfg.QueueDurable {
		msg.DeliveryMode = amqp.Persistent
	}
	for k, v := range attrs {
		msg.Headers[k] = v
	}

	if err := r.ch.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", err
	}
	return msg.MessageId, nil
}

// Subscribe acks each delivery after handler succeeds and requeues it when
// handler fails.
func (r *RabbitMQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq queue name is required")
	}

	r.mu.Lock()
	err := r.ensureQueue(channel)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	tag := "ledger-" + messageID()
	deliveries, err := r.ch.ConsumeWithContext(ctx, channel, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq deliveries closed")
			}
			msg := Message{ID: d.MessageId, Data: d.Body, Attributes: tableToAttrs(d.Headers)}
			if err := handler(ctx, msg); err != nil {
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQ) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// ensureQueue must be called with r.mu held.
func (r *RabbitMQ) ensureQueue(name string) error {
	if r.declared[name] {
		return nil
	}
	if _, err := r.ch.QueueDeclare(name, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	r.declared[name] = true
	return nil
}

func tableToAttrs(t amqp.Table) map[string]string {
	if len(t) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(t))
	for k, v := range t {
		if b, ok := v.([]byte); ok {
			attrs[k] = string(b)
			continue
		}
		attrs[k] = fmt.Sprint(v)
	}
	return attrs
}

func messageID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf[:])
}
