// Package session keeps short-lived conversation context per user so
// follow-up questions can reuse recent queries and answers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benefitlab/benefit-engine/internal/cache"
)

// Turn is one exchange in a conversation.
type Turn struct {
	Role    string    `json:"role"` // user or assistant
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Store persists conversation turns per user.
type Store interface {
	Append(ctx context.Context, userID string, turn Turn) error
	History(ctx context.Context, userID string) ([]Turn, error)
	Clear(ctx context.Context, userID string) error
}

// Config bounds session storage.
type Config struct {
	MaxSessions int
	MaxTurns    int
	TTL         time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxSessions <= 0 {
		c.MaxSessions = 1000
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 10
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
}

type memorySession struct {
	turns     []Turn
	updatedAt time.Time
}

// MemoryStore is an in-process session store. When the session count
// exceeds the limit, the least recently updated session is evicted.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	cfg      Config
}

// NewMemoryStore creates a bounded in-memory session store.
func NewMemoryStore(cfg Config) *MemoryStore {
	cfg.applyDefaults()
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		cfg:      cfg,
	}
}

// Append adds a turn to the user's session.
func (s *MemoryStore) Append(ctx context.Context, userID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		if len(s.sessions) >= s.cfg.MaxSessions {
			s.evictOldest()
		}
		sess = &memorySession{}
		s.sessions[userID] = sess
	}

	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.cfg.MaxTurns {
		sess.turns = sess.turns[len(sess.turns)-s.cfg.MaxTurns:]
	}
	sess.updatedAt = time.Now()
	return nil
}

// History returns the user's turns, oldest first. Expired sessions
// return empty history.
func (s *MemoryStore) History(ctx context.Context, userID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}

	if time.Since(sess.updatedAt) > s.cfg.TTL {
		delete(s.sessions, userID)
		return nil, nil
	}

	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out, nil
}

// Clear removes the user's session.
func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

func (s *MemoryStore) evictOldest() {
	var oldestID string
	var oldestTime time.Time

	for id, sess := range s.sessions {
		if oldestID == "" || sess.updatedAt.Before(oldestTime) {
			oldestID = id
			oldestTime = sess.updatedAt
		}
	}

	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

// CacheStore persists sessions through a cache backend, letting
// multiple API instances share conversation context via Redis.
type CacheStore struct {
	client cache.Client
	cfg    Config
}

// NewCacheStore creates a session store over a cache client.
func NewCacheStore(client cache.Client, cfg Config) *CacheStore {
	cfg.applyDefaults()
	return &CacheStore{client: client, cfg: cfg}
}

func sessionKey(userID string) string {
	return cache.CacheKey("session", userID)
}

// Append adds a turn to the user's session.
func (s *CacheStore) Append(ctx context.Context, userID string, turn Turn) error {
	turns, err := s.History(ctx, userID)
	if err != nil {
		return err
	}

	turns = append(turns, turn)
	if len(turns) > s.cfg.MaxTurns {
		turns = turns[len(turns)-s.cfg.MaxTurns:]
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(userID), data, s.cfg.TTL)
}

// History returns the user's turns, oldest first.
func (s *CacheStore) History(ctx context.Context, userID string) ([]Turn, error) {
	data, err := s.client.Get(ctx, sessionKey(userID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return turns, nil
}

// Clear removes the user's session.
func (s *CacheStore) Clear(ctx context.Context, userID string) error {
	return s.client.Delete(ctx, sessionKey(userID))
}
