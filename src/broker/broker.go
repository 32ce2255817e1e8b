// Package broker publishes pipeline events to message topics. InMemoryBroker
// serves single-process runs and tests; RedpandaBroker talks to any
// Kafka-compatible cluster.
package broker

import "context"

// Broker moves stage events and governance reports between processes.
type Broker interface {
	// Publish appends value to topic. The key is the run ID, so every event of
	// one run lands on the same Kafka partition and stays ordered.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe streams topic to the returned channel until ctx is done or the
	// broker closes. groupID names the consumer group; the in-memory broker
	// ignores it and delivers only messages published after the call.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	Close() error
}

// Message is one consumed record.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64  // unix millis
	Producer  string // client ID of the publisher, when known
}
