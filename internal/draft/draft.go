// Package draft keeps the in-progress marking sheet server-side so marks
// survive roster refreshes and page reloads.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rollcall/internal/roster"
)

// Marks maps a student identity key (roster id, or case-folded name for
// unsaved students) to a marking status.
type Marks map[string]string

// ErrBadStatus rejects a staged mark that is neither present nor absent.
var ErrBadStatus = errors.New("status must be present or absent")

// Store persists draft marks.
type Store interface {
	Put(ctx context.Context, id string, marks Marks) error
	Get(ctx context.Context, id string) (Marks, error)
	Clear(ctx context.Context, id string) error
}

// RedisStore keeps drafts in TTL-bound Redis hashes; an abandoned sheet
// expires on its own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a draft store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func draftKey(id string) string { return "draft:" + id }

// Put replaces the stored marks for a draft.
func (s *RedisStore) Put(ctx context.Context, id string, marks Marks) error {
	key := draftKey(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(marks) > 0 {
		flat := make([]interface{}, 0, 2*len(marks))
		for k, v := range marks {
			flat = append(flat, k, v)
		}
		pipe.HSet(ctx, key, flat...)
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the stored marks; a missing draft reads as empty.
func (s *RedisStore) Get(ctx context.Context, id string) (Marks, error) {
	vals, err := s.client.HGetAll(ctx, draftKey(id)).Result()
	if err != nil {
		return nil, err
	}
	return Marks(vals), nil
}

// Clear drops a draft after a successful save.
func (s *RedisStore) Clear(ctx context.Context, id string) error {
	return s.client.Del(ctx, draftKey(id)).Err()
}

// RosterLister is the slice of the roster service the sheet needs.
type RosterLister interface {
	List(ctx context.Context) ([]roster.Student, error)
}

// Sheets stages marks and loads them reconciled against the live roster.
type Sheets struct {
	store  Store
	roster RosterLister
}

// NewSheets wires a sheet service.
func NewSheets(store Store, lister RosterLister) *Sheets {
	return &Sheets{store: store, roster: lister}
}

// Stage validates and stores a sheet's marks. An empty status unmarks the
// student.
func (s *Sheets) Stage(ctx context.Context, id string, marks Marks) error {
	clean := make(Marks, len(marks))
	for key, status := range marks {
		switch status {
		case roster.StatusPresent, roster.StatusAbsent:
			clean[key] = status
		case roster.StatusUnmarked:
			// dropped
		default:
			return fmt.Errorf("%w: %q", ErrBadStatus, status)
		}
	}
	return s.store.Put(ctx, id, clean)
}

// Load fetches the current roster and reconciles the stored marks against
// it: marks survive for students still on the roster, removed students drop
// out, new students come back unmarked.
func (s *Sheets) Load(ctx context.Context, id string) ([]roster.Marked, error) {
	server, err := s.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	marks, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	working := make([]roster.Marked, 0, len(marks))
	for key, status := range marks {
		working = append(working, roster.Marked{
			Student: roster.Student{ID: key},
			Status:  status,
		})
	}
	return roster.Reconcile(server, working), nil
}

// Clear drops the draft.
func (s *Sheets) Clear(ctx context.Context, id string) error {
	return s.store.Clear(ctx, id)
}
