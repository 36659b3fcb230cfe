package bus

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Collections that emit change notifications.
const (
	CollectionStudents   = "students"
	CollectionAttendance = "attendance"
)

// Event says a collection changed. It carries no diff: consumers refetch the
// full collection and work from the fresh snapshot.
type Event struct {
	Collection string
}

// Bus is the abstraction over different backends. Unlike a work queue, every
// subscriber sees every event.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// InMemory is a channel-backed bus for dev and tests.
type InMemory struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewInMemory creates an in-process bus.
func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[chan Event]struct{})}
}

// Publish fans the event out to every subscriber. A subscriber that cannot
// keep up misses the event; the next one triggers a fresh snapshot anyway.
func (b *InMemory) Publish(_ context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener until ctx is canceled.
func (b *InMemory) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// RedisBus fans events out across processes via Redis pub/sub, so the worker
// and every api instance observe the same change notifications.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus builds a bus on a pub/sub channel.
func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = "rollcall:changes"
	}
	return &RedisBus{client: client, channel: channel}
}

// Publish sends the changed collection name to the channel.
func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	return b.client.Publish(ctx, b.channel, evt.Collection).Err()
}

// Subscribe streams events until ctx is canceled.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				log.Printf("pubsub close: %v", err)
			}
		}()
		msgs := sub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- Event{Collection: msg.Payload}:
				default:
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
