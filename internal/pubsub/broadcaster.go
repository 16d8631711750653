package pubsub

import (
	"log/slog"
	"sync"
)

const defaultBuffer = 16

// Broadcaster fans events out to topic subscribers. Publish never blocks past
// the subscriber's bounded buffer: a slow consumer loses events (at-most-once)
// instead of stalling the booking path. Reconnecting clients resync through
// the synchronous queue-status read.
type Broadcaster struct {
	mu     sync.RWMutex
	topics map[string]map[uint64]*Subscription
	nextID uint64
	buffer int
	logger *slog.Logger
}

// Subscription is a per-connection handle; closing it releases all resources.
// There is no shared connection registry behind it.
type Subscription struct {
	id     uint64
	topics []string
	ch     chan Event
	b      *Broadcaster
	once   sync.Once
}

func NewBroadcaster(buffer int, logger *slog.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		topics: make(map[string]map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

func (b *Broadcaster) Subscribe(topics ...string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		topics: topics,
		ch:     make(chan Event, b.buffer),
		b:      b,
	}
	for _, topic := range topics {
		if b.topics[topic] == nil {
			b.topics[topic] = make(map[uint64]*Subscription)
		}
		b.topics[topic][sub.id] = sub
	}
	return sub
}

// Publish delivers ev to every current subscriber of topic. A full subscriber
// buffer drops the event for that subscriber only; the publisher never waits.
func (b *Broadcaster) Publish(topic string, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"topic", topic, "event_type", ev.Type, "subscriber", sub.id)
		}
	}
}

func (b *Broadcaster) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Broadcaster) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topic := range sub.topics {
		subs := b.topics[topic]
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
}

// Events is the receive side of the subscription; closed on Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.unsubscribe(s)
		close(s.ch)
	})
}
