package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is how long a session lives without being read or extended.
const DefaultSessionTTL = 300 * time.Second

const (
	StorageMemory = "Memory"
	StorageRedis  = "Redis"
)

// SessionRecord is the server-side state of one search.
type SessionRecord struct {
	RollNumber string              `json:"roll_number"`
	Date       string              `json:"date"`
	Status     string              `json:"status"`
	Message    string              `json:"message"`
	Progress   int                 `json:"progress"`
	Results    []models.SeatResult `json:"results"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Terminal reports whether the search has finished.
func (r SessionRecord) Terminal() bool {
	return r.Status == models.RemoteCompleted || r.Status == models.RemoteError
}

// SessionStore keeps search sessions with a sliding expiry.
//
// Get refreshes the expiry. Extend refreshes it without reading.
// Methods report a missing or expired session as [shared.ErrSessionNotFound].
type SessionStore interface {
	Put(ctx context.Context, id string, rec SessionRecord) error
	Get(ctx context.Context, id string) (SessionRecord, error)
	Update(ctx context.Context, id string, fn func(*SessionRecord)) (SessionRecord, error)
	Extend(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Kind() string
}

// NewSessionStore returns a [RedisStore] when cfg names a reachable Redis server and a [MemoryStore] otherwise.
func NewSessionStore(ctx context.Context, cfg shared.CacheConfig, logger *log.Logger) SessionStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	if cfg.RedisAddr == "" {
		logger.Info("using in-memory sessions")
		return NewMemoryStore(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, using memory fallback", "addr", cfg.RedisAddr, "err", err)
		_ = client.Close()
		return NewMemoryStore(ttl)
	}

	logger.Info("redis connected for sessions", "addr", cfg.RedisAddr)
	return NewRedisStore(client, ttl)
}

type memoryEntry struct {
	rec          SessionRecord
	lastAccessed time.Time
}

// MemoryStore is a process-local [SessionStore].
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty store whose sessions expire ttl after their last access.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: make(map[string]*memoryEntry), now: time.Now}
}

func (s *MemoryStore) Kind() string { return StorageMemory }

func (s *MemoryStore) Put(_ context.Context, id string, rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &memoryEntry{rec: rec, lastAccessed: s.now()}
	return nil
}

// live returns the entry for id, dropping it when expired. Callers hold mu.
func (s *MemoryStore) live(id string) (*memoryEntry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	if s.now().Sub(e.lastAccessed) > s.ttl {
		delete(s.sessions, id)
		return nil, shared.ErrSessionNotFound
	}
	return e, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return SessionRecord{}, err
	}
	e.lastAccessed = s.now()
	return e.rec, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*SessionRecord)) (SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return SessionRecord{}, err
	}
	fn(&e.rec)
	e.lastAccessed = s.now()
	return e.rec, nil
}

func (s *MemoryStore) Extend(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return err
	}
	e.lastAccessed = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
	return nil
}

// Count drops expired sessions and returns the number left.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.sessions {
		if now.Sub(e.lastAccessed) > s.ttl {
			delete(s.sessions, id)
		}
	}
	return len(s.sessions), nil
}

// RedisStore keeps sessions as JSON under session:{id} with a Redis TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// SessionKey returns the Redis key for a session.
func SessionKey(id string) string { return "session:" + id }

func (s *RedisStore) Kind() string { return StorageRedis }

func (s *RedisStore) Put(ctx context.Context, id string, rec SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (SessionRecord, error) {
	data, err := s.client.GetEx(ctx, SessionKey(id), s.ttl).Bytes()
	return decodeRecord(data, err)
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*SessionRecord)) (SessionRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return SessionRecord{}, err
	}
	fn(&rec)
	if err := s.Put(ctx, id, rec); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

func (s *RedisStore) Extend(ctx context.Context, id string) error {
	ok, err := s.client.Expire(ctx, SessionKey(id), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire failed: %w", err)
	}
	if !ok {
		return shared.ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, SessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return keys, nil
}

func decodeRecord(data []byte, err error) (SessionRecord, error) {
	if errors.Is(err, redis.Nil) {
		return SessionRecord{}, shared.ErrSessionNotFound
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("redis get failed: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SessionRecord{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return rec, nil
}
