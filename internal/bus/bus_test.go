package bus

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryFansOutToEverySubscriber(t *testing.T) {
	b := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	second, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := b.Publish(context.Background(), Event{Collection: CollectionStudents}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for i, ch := range []<-chan Event{first, second} {
		select {
		case evt := <-ch:
			if evt.Collection != CollectionStudents {
				t.Errorf("subscriber %d got %q, want students", i, evt.Collection)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestInMemorySubscriptionEndsOnCancel(t *testing.T) {
	b := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after teardown must not block or panic.
	if err := b.Publish(context.Background(), Event{Collection: CollectionAttendance}); err != nil {
		t.Errorf("publish after cancel: %v", err)
	}
}
