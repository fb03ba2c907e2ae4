package mq

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

const defaultMemoryDepth = 1024

var (
	// ErrClosed is returned by a Memory backend after Close.
	ErrClosed = errors.New("mq: backend closed")
	// ErrQueueFull is returned by Memory.Publish when the channel's queue
	// already holds depth messages. The message is not enqueued.
	ErrQueueFull = errors.New("mq: queue full")
)

// Memory is an in-process backend with queue semantics: each message goes
// to exactly one subscriber of its channel, and messages published before
// anyone subscribes wait in the queue. Publish never blocks: a full queue
// rejects the message. A failed handler puts the message back at the tail,
// or holds it for the next delivery when the tail is full.
type Memory struct {
	depth int
	seq   atomic.Uint64

	mu     sync.Mutex
	queues map[string]chan Message
	done   chan struct{}
	closed bool
}

// NewMemory returns a backend whose per-channel queues hold depth messages.
func NewMemory(depth int) *Memory {
	if depth <= 0 {
		depth = defaultMemoryDepth
	}
	return &Memory{
		depth:  depth,
		queues: make(map[string]chan Message),
		done:   make(chan struct{}),
	}
}

func (m *Memory) queue(channel string) (chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	q, ok := m.queues[channel]
	if !ok {
		q = make(chan Message, m.depth)
		m.queues[channel] = q
	}
	return q, nil
}

func (m *Memory) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	q, err := m.queue(channel)
	if err != nil {
		return "", err
	}
	msg := Message{
		ID:         fmt.Sprintf("mem-%d", m.seq.Add(1)),
		Data:       append([]byte(nil), data...),
		Attributes: maps.Clone(attrs),
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-m.done:
		return "", ErrClosed
	default:
	}
	select {
	case q <- msg:
		return msg.ID, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrQueueFull, channel)
	}
}

func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	q, err := m.queue(channel)
	if err != nil {
		return err
	}
	var held []Message
	for {
		var msg Message
		if len(held) > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.done:
				return ErrClosed
			default:
			}
			msg, held = held[0], held[1:]
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.done:
				return ErrClosed
			case msg = <-q:
			}
		}

		if err := handler(ctx, msg); err != nil {
			select {
			case q <- msg:
			default:
				held = append(held, msg)
			}
		}
	}
}

// Close stops all subscribers. Queued messages are discarded.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Pending reports how many messages wait on channel.
func (m *Memory) Pending(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[channel])
}
