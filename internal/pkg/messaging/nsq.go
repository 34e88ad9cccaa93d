package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQTopicRequired is returned when the topic is empty.
	ErrNSQTopicRequired = errors.New("messaging: nsq topic is required")
	// ErrNSQChannelRequired is returned when Consume gets neither a group nor a queue group.
	ErrNSQChannelRequired = errors.New("messaging: nsq channel is required")
	// ErrNSQProducerAddrRequired is returned when publishing without an nsqd address.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when no nsqd or lookupd consumer address is configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq nsqd or lookupd addresses are required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd TCP address used for publishing.
	ProducerAddr string
	// NSQDAddrs are dialed directly by consumers when no lookupd is set.
	NSQDAddrs []string
	// LookupdAddrs are nsqlookupd HTTP addresses used for discovery.
	LookupdAddrs []string
	// Config overrides nsq.NewConfig() for producer and consumers.
	Config *nsq.Config
}

// NSQ is a messaging implementation backed by go-nsq. NSQ has no message
// headers, so bodies travel inside an nsqFrame that carries them.
type NSQ struct {
	producer     *nsq.Producer
	nsqdAddrs    []string
	lookupdAddrs []string
	config       *nsq.Config

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

// NewNSQ builds the producer when ProducerAddr is set. Consumers connect on
// Consume.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	ncfg := cfg.Config
	if ncfg == nil {
		ncfg = nsq.NewConfig()
	}

	n := &NSQ{
		nsqdAddrs:    append([]string{}, cfg.NSQDAddrs...),
		lookupdAddrs: append([]string{}, cfg.LookupdAddrs...),
		config:       ncfg,
	}

	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, ncfg)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

// Close stops every consumer and then the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		stopNSQConsumer(c)
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

// Publish frames the message and sends it to an NSQ topic. A positive Delay
// uses deferred publishing.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNSQTopicRequired
	}
	if n.producer == nil {
		return PublishResult{}, ErrNSQProducerAddrRequired
	}

	body, err := encodeNSQFrame(msg)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq encode frame: %w", err)
	}

	if msg.Delay > 0 {
		err = n.producer.DeferredPublish(destination, msg.Delay, body)
	} else {
		err = n.producer.Publish(destination, body)
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Consume reads a topic through a channel named after the queue group (or
// the group) and blocks until ctx is done or the consumer stops.
func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNSQTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(n.nsqdAddrs) == 0 && len(n.lookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	co := newConsumeOptions(opts...)
	channel := co.queueGroup
	if channel == "" {
		channel = co.group
	}
	if channel == "" {
		return ErrNSQChannelRequired
	}

	ccfg := *n.config
	ccfg.MaxInFlight = max(ccfg.MaxInFlight, co.concurrency)

	consumer, err := nsq.NewConsumer(source, channel, &ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsqHandler(ctx, source, handler, co.autoAck), co.concurrency)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		stopNSQConsumer(consumer)
		return io.ErrClosedPipe
	}
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	if len(n.lookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.lookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.nsqdAddrs)
	}
	if err != nil {
		stopNSQConsumer(consumer)
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		stopNSQConsumer(consumer)
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func nsqHandler(ctx context.Context, topic string, handler Handler, autoAck bool) nsq.HandlerFunc {
	return func(m *nsq.Message) error {
		m.DisableAutoResponse()

		wrapped := newNSQMessage(topic, m)
		herr := callHandlerWithRecover(ctx, DriverNSQ, func() error {
			return handler(ctx, wrapped)
		})
		if !autoAck || wrapped.responded.Load() {
			return herr
		}
		return ackOrNack(ctx, wrapped, herr)
	}
}

func stopNSQConsumer(c *nsq.Consumer) {
	c.Stop()
	<-c.StopChan
}

// nsqFrame is the wire form of a message on NSQ.
type nsqFrame struct {
	Headers []nsqHeader `json:"h,omitempty"`
	Key     []byte      `json:"k,omitempty"`
	Body    []byte      `json:"b"`
}

type nsqHeader struct {
	Key   string `json:"k"`
	Value []byte `json:"v"`
}

func encodeNSQFrame(msg OutgoingMessage) ([]byte, error) {
	f := nsqFrame{Key: msg.Key, Body: msg.Body}
	if f.Body == nil {
		f.Body = []byte{}
	}
	for _, h := range msg.Headers {
		if h.Key != "" {
			f.Headers = append(f.Headers, nsqHeader{Key: h.Key, Value: h.Value})
		}
	}
	return json.Marshal(f)
}

// decodeNSQFrame unwraps a frame. Bodies from foreign producers that are
// not frames come back as-is with no headers.
func decodeNSQFrame(raw []byte) nsqFrame {
	var f nsqFrame
	if err := json.Unmarshal(raw, &f); err != nil || f.Body == nil {
		return nsqFrame{Body: raw}
	}
	return f
}

type nsqMessage struct {
	topic     string
	msg       *nsq.Message
	frame     nsqFrame
	responded atomic.Bool
}

func newNSQMessage(topic string, m *nsq.Message) *nsqMessage {
	return &nsqMessage{topic: topic, msg: m, frame: decodeNSQFrame(m.Body)}
}

func (m *nsqMessage) Body() []byte         { return m.frame.Body }
func (m *nsqMessage) Key() []byte          { return m.frame.Key }
func (m *nsqMessage) Topic() string        { return m.topic }
func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }

func (m *nsqMessage) Headers() []Header {
	headers := make([]Header, 0, len(m.frame.Headers))
	for _, h := range m.frame.Headers {
		headers = append(headers, Header{Key: h.Key, Value: h.Value})
	}
	return headers
}

func (m *nsqMessage) Ack(context.Context) error {
	if !m.responded.Swap(true) {
		m.msg.Finish()
	}
	return nil
}

// Nack requeues with nsqd's default backoff.
func (m *nsqMessage) Nack(context.Context) error {
	if !m.responded.Swap(true) {
		m.msg.Requeue(-1)
	}
	return nil
}
