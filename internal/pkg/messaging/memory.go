package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrMemoryFull is returned when a subscriber buffer cannot take more messages.
var ErrMemoryFull = errors.New("messaging: memory subscriber buffer is full")

// Memory is an in-process broker. Every Consume call is its own subscriber
// unless it shares a group with another, in which case they compete for the
// messages like a queue group.
type Memory struct {
	buffer int

	mu     sync.RWMutex
	groups map[string]map[string]*memorySub
	anon   int
	closed bool
}

type memorySub struct {
	ch   chan memoryMessage
	refs int
}

// NewMemory returns an in-process broker whose subscriber buffers hold
// buffer messages each.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 64
	}
	return &Memory{
		buffer: buffer,
		groups: map[string]map[string]*memorySub{},
	}
}

// Close stops accepting messages. Running consumers return once their
// context is done.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish fans the message out to one channel per subscriber group.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	now := time.Now()
	for _, sub := range m.groups[destination] {
		select {
		case sub.ch <- memoryMessage{topic: destination, body: msg.Body, key: msg.Key, headers: msg.Headers, at: now}:
		default:
			return PublishResult{}, ErrMemoryFull
		}
	}

	return PublishResult{Topic: destination, Timestamp: now}, nil
}

// Consume registers a subscriber and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = co.queueGroup
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	subs, ok := m.groups[source]
	if !ok {
		subs = map[string]*memorySub{}
		m.groups[source] = subs
	}
	key := group
	if key == "" {
		m.anon++
		key = fmt.Sprintf("anon-%d", m.anon)
	}
	sub, ok := subs[key]
	if !ok {
		sub = &memorySub{ch: make(chan memoryMessage, m.buffer)}
		subs[key] = sub
	}
	sub.refs++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub.refs--; sub.refs == 0 {
			delete(subs, key)
		}
	}()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-sub.ch:
					//nolint:errcheck // memory messages have nothing to ack
					_ = callHandlerWithRecover(ctx, DriverMemory, func() error {
						return handler(ctx, &msg)
					})
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

type memoryMessage struct {
	topic   string
	body    []byte
	key     []byte
	headers []Header
	at      time.Time
}

func (m *memoryMessage) Body() []byte              { return m.body }
func (m *memoryMessage) Key() []byte               { return m.key }
func (m *memoryMessage) Headers() []Header         { return m.headers }
func (m *memoryMessage) Topic() string             { return m.topic }
func (m *memoryMessage) Timestamp() time.Time      { return m.at }
func (m *memoryMessage) Ack(context.Context) error { return nil }
