// Package messaging is a broker-agnostic publish/consume abstraction with NATS,
// Kafka and in-process drivers.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source. Consume blocks until ctx is done
// or the broker fails.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto-ack enabled a nil error acks
// the message and a non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage represents a message to be published.
type OutgoingMessage struct {
	Body []byte
	// Key is used by Kafka for partitioning.
	Key     []byte
	Headers []Header
	Delay   time.Duration
}

// HeaderCorrelationID carries the request correlation id across the broker.
const HeaderCorrelationID = "cID"

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries broker metadata of an accepted message.
type PublishResult struct {
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	// Header returns the first value of the named header.
	Header(key string) string
	Topic() string
	Timestamp() time.Time

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

func headerValue(headers []Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
