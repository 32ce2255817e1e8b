package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity of each in-memory subscription.
const subscriberBuffer = 100

// InMemoryBroker is an in-process Broker. Every subscriber of a topic
// receives every message published after it subscribed; the group id is
// ignored. Published messages are also retained so tests and the CLI can
// inspect what a run emitted.
type InMemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Message
	published   map[string][]Message
	offsets     map[string]int64
	closed      bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subscribers: make(map[string][]chan Message),
		published:   make(map[string][]Message),
		offsets:     make(map[string]int64),
	}
}

// Publish delivers value to all current subscribers of topic. A subscriber
// whose buffer is full misses the message rather than blocking the publisher.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    b.offsets[topic],
		Timestamp: time.Now().UnixMilli(),
	}
	b.offsets[topic]++
	b.published[topic] = append(b.published[topic], msg)

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel receiving messages published to topic from now on.
// The channel is closed when ctx is done or the broker is closed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	ch := make(chan Message, subscriberBuffer)
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			b.unsubscribe(topic, ch)
		}()
	}
	return ch, nil
}

func (b *InMemoryBroker) unsubscribe(topic string, target chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, ch := range subs {
		if ch == target {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Published returns every message published to topic, in order.
func (b *InMemoryBroker) Published(topic string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Message, len(b.published[topic]))
	copy(out, b.published[topic])
	return out
}

// Close closes all subscriber channels. Later calls to Publish and Subscribe fail.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
	return nil
}
