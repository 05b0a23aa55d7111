package messaging

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DriverNATS   = "nats"
	DriverKafka  = "kafka"
	DriverMemory = "memory"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for supported messaging backends.
type FactoryOptions struct {
	NATS  NATSConfig
	Kafka KafkaConfig
}

// NewFromDriver constructs a Messaging implementation by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.TrimSpace(driver) {
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
