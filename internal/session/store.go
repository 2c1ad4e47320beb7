package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no live session exists for a user.
var ErrNotFound = errors.New("session not found")

// Store persists in-flight dialog sessions keyed by the user's chat id.
// Implementations must expire idle sessions after the configured TTL.
type Store interface {
	Get(ctx context.Context, telegramID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, telegramID string) error
}

// RedisStore keeps sessions in Redis so multiple bot instances share
// dialog state. Every write refreshes the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(telegramID string) string {
	return "session:" + telegramID
}

// Get retrieves the live session for a user
func (s *RedisStore) Get(ctx context.Context, telegramID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(telegramID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Put stores a session, replacing any prior one for the same user
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.TelegramID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete removes a user's session. Deleting an absent session is not
// an error.
func (s *RedisStore) Delete(ctx context.Context, telegramID string) error {
	if err := s.client.Del(ctx, sessionKey(telegramID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process session store used when no Redis address
// is configured, and in tests. Sessions expire lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// NewMemoryStore creates an in-memory session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Get retrieves the live session for a user
func (s *MemoryStore) Get(ctx context.Context, telegramID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[telegramID]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expires) {
		delete(s.entries, telegramID)
		return nil, ErrNotFound
	}
	sess := entry.session
	return &sess, nil
}

// Put stores a session, replacing any prior one for the same user
func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.TelegramID] = memoryEntry{
		session: *sess,
		expires: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete removes a user's session
func (s *MemoryStore) Delete(ctx context.Context, telegramID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, telegramID)
	return nil
}
