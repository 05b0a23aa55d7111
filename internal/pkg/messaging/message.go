package messaging

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// ackState makes Ack and Nack idempotent: only the first response reaches the broker.
type ackState struct {
	done atomic.Bool
}

func (a *ackState) responded() bool { return a.done.Load() }

func (a *ackState) respond(ctx context.Context, fn func(context.Context) error) error {
	if !a.done.CompareAndSwap(false, true) {
		return nil
	}
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// envelope is the driver-independent part of a received message.
type envelope struct {
	ackState

	body      []byte
	key       []byte
	headers   []Header
	topic     string
	timestamp time.Time

	ack  func(context.Context) error
	nack func(context.Context) error
}

func (m *envelope) Body() []byte             { return m.body }
func (m *envelope) Key() []byte              { return m.key }
func (m *envelope) Headers() []Header        { return m.headers }
func (m *envelope) Header(key string) string { return headerValue(m.headers, key) }
func (m *envelope) Topic() string            { return m.topic }
func (m *envelope) Timestamp() time.Time     { return m.timestamp }

func (m *envelope) Ack(ctx context.Context) error  { return m.respond(ctx, m.ack) }
func (m *envelope) Nack(ctx context.Context) error { return m.respond(ctx, m.nack) }
