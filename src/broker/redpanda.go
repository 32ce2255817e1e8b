package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"incidentops/src/logger"
)

// ClientID identifies IncidentOps producers and consumers to the cluster.
const ClientID = "incidentops"

// HeaderProducer is the record header naming the producing client.
const HeaderProducer = "producer"

// consumerBuffer is the channel capacity of each Redpanda subscription.
const consumerBuffer = 100

// RedpandaBroker is a Broker backed by a Kafka-compatible cluster (franz-go).
// Publishes are synchronous so a run's events are durable once the stage
// observer returns.
type RedpandaBroker struct {
	client    *kgo.Client
	brokers   []string
	mu        sync.RWMutex
	consumers map[string]*kgo.Client // topic:groupID -> consumer client
	closed    bool
	logger    logger.Logger
}

// NewRedpandaBroker connects a producer to brokers (e.g. ["localhost:19092"]).
// Topics are created on first publish when the cluster allows it.
func NewRedpandaBroker(brokers []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaBroker{
		client:    client,
		brokers:   brokers,
		consumers: make(map[string]*kgo.Client),
		logger:    log,
	}, nil
}

// Publish produces one record keyed by key and waits for the acknowledgement.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	record := &kgo.Record{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: HeaderProducer, Value: []byte(ClientID)}},
	}
	if err := b.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts a group consumer on topic, reading from the earliest
// offset the group has not committed. The channel is closed when ctx is done
// or the broker is closed; the group can then be subscribed again.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	key := topic + ":" + groupID
	if _, exists := b.consumers[key]; exists {
		return nil, fmt.Errorf("consumer already exists for topic %s and group %s", topic, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ClientID(ClientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	b.consumers[key] = consumer

	out := make(chan Message, consumerBuffer)
	go func() {
		defer b.release(key, consumer)
		defer close(out)
		b.consume(ctx, consumer, out)
	}()
	return out, nil
}

// consume polls consumer until ctx is done or the client is closed.
func (b *RedpandaBroker) consume(ctx context.Context, consumer *kgo.Client, out chan<- Message) {
	for ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		for _, fe := range fetches.Errors() {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("[RedpandaBroker] Fetch error on %s/%d: %v", fe.Topic, fe.Partition, fe.Err)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			select {
			case out <- toMessage(iter.Next()):
			case <-ctx.Done():
				return
			}
		}
	}
}

// release drops a finished consumer. Consumers already dropped by Close are left alone.
func (b *RedpandaBroker) release(key string, consumer *kgo.Client) {
	b.mu.Lock()
	current, ok := b.consumers[key]
	if ok && current == consumer {
		delete(b.consumers, key)
	}
	b.mu.Unlock()

	if ok && current == consumer {
		consumer.Close()
	}
}

func toMessage(r *kgo.Record) Message {
	msg := Message{
		Topic:     r.Topic,
		Key:       string(r.Key),
		Value:     r.Value,
		Offset:    r.Offset,
		Partition: r.Partition,
		Timestamp: r.Timestamp.UnixMilli(),
	}
	for _, h := range r.Headers {
		if h.Key == HeaderProducer {
			msg.Producer = string(h.Value)
		}
	}
	return msg
}

// Close shuts down the producer and every consumer.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for key, consumer := range b.consumers {
		consumer.Close()
		delete(b.consumers, key)
	}
	b.client.Close()
	return nil
}
