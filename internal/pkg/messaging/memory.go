package messaging

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

var (
	ErrMemoryTopicRequired = errors.New("messaging: memory topic is required")
	// ErrMemoryBackpressure is returned when a consumer buffer is full.
	ErrMemoryBackpressure = errors.New("messaging: memory consumer is full")
)

const memoryBuffer = 128

// Memory is an in-process broker for single-binary deployments and tests.
// Every consumer of a topic receives every message published after it subscribed.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]chan *envelope
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]chan *envelope)}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for _, chans := range m.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	m.subs = nil

	return nil
}

func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrMemoryTopicRequired
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
	for _, ch := range m.subs[destination] {
		env := &envelope{body: msg.Body, key: msg.Key, headers: msg.Headers, topic: destination, timestamp: now}
		select {
		case ch <- env:
		default:
			return PublishResult{}, ErrMemoryBackpressure
		}
	}

	return PublishResult{Topic: destination, Timestamp: now}, nil
}

func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrMemoryTopicRequired
	}
	co := newConsumeOptions(opts...)

	ch := make(chan *envelope, memoryBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], ch)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case env, ok := <-ch:
					if !ok {
						return
					}
					_ = dispatch(ctx, DriverMemory, handler, env, co.autoAck)
				case <-ctx.Done():
					return
				}
			}
		})
	}

	wg.Wait()
	m.unsubscribe(source, ch)

	if err := ctx.Err(); err != nil {
		return err
	}
	return io.ErrClosedPipe
}

func (m *Memory) unsubscribe(source string, ch chan *envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	chans := m.subs[source]
	for i, c := range chans {
		if c == ch {
			m.subs[source] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
}
