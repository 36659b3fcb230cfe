package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"rollcall/internal/bus"
)

// FetchFunc loads the current full contents of a collection.
type FetchFunc func(ctx context.Context) (any, error)

// Hub turns change notifications for one collection into full-snapshot
// broadcasts. Each notification replaces the previous snapshot wholesale;
// there is no incremental-diff contract. Clients attach, get the latest
// snapshot, and receive a fresh one after every change until they detach.
type Hub struct {
	collection string
	fetch      FetchFunc

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	latest  []byte
}

// NewHub creates a hub for one collection.
func NewHub(collection string, fetch FetchFunc) *Hub {
	return &Hub{
		collection: collection,
		fetch:      fetch,
		clients:    make(map[chan []byte]struct{}),
	}
}

// Run consumes bus events until ctx is canceled. It belongs in its own
// goroutine.
func (h *Hub) Run(ctx context.Context, events <-chan bus.Event) {
	// Prime the snapshot so the first client doesn't wait for a change.
	h.refresh(ctx)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Collection != h.collection {
				continue
			}
			h.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) refresh(ctx context.Context) {
	snap, err := h.fetch(ctx)
	if err != nil {
		log.Printf("live %s: snapshot fetch failed: %v", h.collection, err)
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("live %s: snapshot marshal failed: %v", h.collection, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = data
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			// Slow client keeps its stale snapshot; the next change
			// delivers a complete one regardless.
		}
	}
}

// Attach registers a client. The returned channel delivers full snapshots,
// starting with the latest one when available. The detach func must be called
// on every exit path; leaking it leaves a standing listener behind.
func (h *Hub) Attach() (<-chan []byte, func()) {
	ch := make(chan []byte, 4)

	h.mu.Lock()
	if h.latest != nil {
		ch <- h.latest
	}
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, detach
}

// Snapshot fetches the collection directly, bypassing the cache, for
// request/response callers.
func (h *Hub) Snapshot(ctx context.Context) ([]byte, error) {
	snap, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}
