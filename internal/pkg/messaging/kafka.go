package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	ErrKafkaTopicRequired   = errors.New("messaging: kafka topic is required")
	ErrKafkaHandlerRequired = errors.New("messaging: kafka handler is required")
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	ErrKafkaGroupRequired   = errors.New("messaging: kafka consumer group is required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka is a messaging implementation backed by kafka-go. Offsets are
// committed on Ack; Nack leaves the offset so the group redelivers after a
// rebalance or restart.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers: append([]string(nil), cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: make(map[string]*kafka.Writer),
		readers: make(map[*kafka.Reader]struct{}),
	}, nil
}

// Close shuts down all Kafka readers and writers.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers, readers := k.writers, k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var closeErr error
	for r := range readers {
		closeErr = errors.Join(closeErr, r.Close())
	}
	for _, w := range writers {
		closeErr = errors.Join(closeErr, w.Close())
	}

	return closeErr
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	writer, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	kmsg := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		if h.Key != "" {
			kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
	}

	if err := writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: kmsg.Time}, nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, io.ErrClosedPipe
	}

	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	transport := kafka.DefaultTransport
	if k.dialer != nil {
		transport = &kafka.Transport{Dial: k.dialer.DialFunc, TLS: k.dialer.TLS, SASL: k.dialer.SASLMechanism}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Transport:    transport,
	}
	k.writers[topic] = w

	return w, nil
}

func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case source == "":
		return ErrKafkaTopicRequired
	case handler == nil:
		return ErrKafkaHandlerRequired
	case co.group == "":
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errors.Join(io.ErrClosedPipe, reader.Close())
	}
	k.readers[reader] = struct{}{}
	k.mu.Unlock()

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgCh := make(chan kafka.Message)
	errCh := make(chan error, 1)

	go func() {
		defer close(msgCh)
		for {
			m, err := reader.FetchMessage(consumeCtx)
			if err != nil {
				trySendErr(errCh, err)
				return
			}
			select {
			case msgCh <- m:
			case <-consumeCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				_ = dispatch(consumeCtx, DriverKafka, handler, kafkaEnvelope(reader, m), co.autoAck)
			}
		})
	}

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	wg.Wait()

	k.mu.Lock()
	delete(k.readers, reader)
	k.mu.Unlock()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(err, reader.Close())
	}

	return errors.Join(fmt.Errorf("messaging: kafka consume: %w", err), reader.Close())
}

func kafkaEnvelope(reader *kafka.Reader, m kafka.Message) *envelope {
	headers := make([]Header, 0, len(m.Headers))
	for _, h := range m.Headers {
		headers = append(headers, Header{Key: h.Key, Value: h.Value})
	}

	return &envelope{
		body:      m.Value,
		key:       m.Key,
		headers:   headers,
		topic:     m.Topic,
		timestamp: m.Time,
		ack: func(ctx context.Context) error {
			return reader.CommitMessages(ctx, m)
		},
	}
}

func trySendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
