package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session flags kept per admin login. The flag names mirror the persisted
// session-scoped keys the rest of the system reads.
const (
	fieldAuthenticated = "adminAuthenticated"
	fieldUsername      = "adminUsername"
)

// Session is one live admin login.
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Sessions keeps admin sessions in Redis, TTL-bound. Sessions are the only
// mutable shared state outside the database; every guard re-reads them here
// instead of trusting an in-memory copy, because a different component (a
// logout, an expiry) may have mutated them.
type Sessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessions creates a Redis-backed session store.
func NewSessions(client *redis.Client, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{client: client, ttl: ttl}
}

func sessionKey(id string) string { return "session:" + id }

// Create opens a new session for username and returns it.
func (s *Sessions) Create(ctx context.Context, username string) (Session, error) {
	sess := Session{ID: uuid.NewString(), Username: username}
	key := sessionKey(sess.ID)
	if err := s.client.HSet(ctx, key,
		fieldAuthenticated, "true",
		fieldUsername, username,
	).Err(); err != nil {
		return Session{}, err
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get returns the session and whether it is authenticated. A missing or
// expired session reads as not authenticated, not as an error.
func (s *Sessions) Get(ctx context.Context, id string) (Session, bool, error) {
	if id == "" {
		return Session{}, false, nil
	}
	vals, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return Session{}, false, err
	}
	if vals[fieldAuthenticated] != "true" {
		return Session{}, false, nil
	}
	return Session{ID: id, Username: vals[fieldUsername]}, true, nil
}

// Delete clears a session unconditionally. Deleting a session that does not
// exist succeeds.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, sessionKey(id)).Err()
}
