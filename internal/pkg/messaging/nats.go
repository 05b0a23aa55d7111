package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	ErrNATSURLRequired     = errors.New("messaging: nats url is required")
	ErrNATSHandlerRequired = errors.New("messaging: nats handler is required")
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is a messaging implementation backed by core NATS. Delivery is
// at-most-once, so Ack and Nack only settle the local state.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains subscriptions and closes the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()

	var closeErr error
	for _, sub := range subs {
		closeErr = errors.Join(closeErr, sub.Drain())
	}

	closeErr = errors.Join(closeErr, n.conn.Drain())
	n.conn.Close()

	return closeErr
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	nmsg := nats.NewMsg(destination)
	nmsg.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			nmsg.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrNATSHandlerRequired
	}

	co := newConsumeOptions(opts...)
	msgCh := make(chan *nats.Msg, co.concurrency)

	// gate keeps the subscription callback from sending on a closed msgCh
	// while the drain is still delivering.
	var (
		gate    sync.RWMutex
		stopped bool
	)

	sub, err := n.conn.QueueSubscribe(source, co.queueGroup, func(m *nats.Msg) {
		gate.RLock()
		defer gate.RUnlock()

		if stopped {
			return
		}

		select {
		case msgCh <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				_ = dispatch(ctx, DriverNATS, handler, natsEnvelope(m), co.autoAck)
			}
		})
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		err = io.ErrClosedPipe
	} else {
		n.subs = append(n.subs, sub)
		n.mu.Unlock()
		err = n.conn.FlushWithContext(ctx)
		if err == nil {
			<-ctx.Done()
			err = ctx.Err()
		}
	}

	err = errors.Join(err, sub.Drain())

	gate.Lock()
	stopped = true
	close(msgCh)
	gate.Unlock()

	wg.Wait()

	return err
}

func natsEnvelope(m *nats.Msg) *envelope {
	var headers []Header
	for k, values := range m.Header {
		for _, v := range values {
			headers = append(headers, Header{Key: k, Value: []byte(v)})
		}
	}

	return &envelope{
		body:      m.Data,
		headers:   headers,
		topic:     m.Subject,
		timestamp: time.Now(),
	}
}
