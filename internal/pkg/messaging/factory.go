package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by NewFromDriver. An empty name means DriverMemory.
const (
	DriverNATS   = "nats"
	DriverKafka  = "kafka"
	DriverNSQ    = "nsq"
	DriverPubSub = "pubsub"
	DriverMemory = "memory"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every driver; only the selected
// driver's field is read.
type FactoryOptions struct {
	NATS         NATSConfig
	Kafka        KafkaConfig
	NSQ          NSQConfig
	PubSub       PubSubConfig
	MemoryBuffer int
}

func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = DriverMemory
	}

	switch name {
	case DriverMemory:
		return NewMemory(opts.MemoryBuffer), nil
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverPubSub:
		return NewPubSub(ctx, opts.PubSub)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
