// Package changes carries coarse "something changed" hints between processes.
// Subscribers treat every event as a reason to re-fetch, never as state.
package changes

import (
	"context"
	"sync"
)

// Event types.
const (
	TypeChanged         = "CHANGED"
	TypeHeartbeat       = "HEARTBEAT"
	TypeHeartbeatRemove = "HEARTBEAT_REMOVE"
	// TypeResync is emitted by backends after a reconnect, when events may have been missed.
	TypeResync = "RESYNC"
)

// subscriberBuffer bounds each subscriber's queue. Events past it are dropped.
const subscriberBuffer = 64

// Event is one change hint.
type Event struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  string `json:"data,omitempty"`
}

// Broker publishes and fans out events.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events for topics (all topics when none are given)
	// until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context, topics ...string) (<-chan Event, error)
	Close() error
}

// Changed is shorthand for a table-changed event.
func Changed(topic, data string) Event {
	return Event{Topic: topic, Type: TypeChanged, Data: data}
}

func matches(topics []string, topic string) bool {
	if len(topics) == 0 {
		return true
	}
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}

type subscriber struct {
	topics []string
	ch     chan Event
}

// MemoryBroker fans events out within one process.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[*subscriber]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		if !matches(s.topics, ev.Topic) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	s := &subscriber{topics: topics, ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch, nil
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(s)
	}()
	return s.ch, nil
}

func (b *MemoryBroker) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Close ends every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
	b.closed = true
	return nil
}
