package server

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/seatx/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	newStore := func() (*MemoryStore, *fakeClock) {
		clock := newClock()
		s := NewMemoryStore(DefaultSessionTTL)
		s.now = clock.Now
		return s, clock
	}

	t.Run("Put And Get", func(t *testing.T) {
		s, _ := newStore()
		require.NoError(t, s.Put(ctx, "a", SessionRecord{RollNumber: "RA2211003010123", Status: "searching"}))

		rec, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "RA2211003010123", rec.RollNumber)

		_, err = s.Get(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("Expires After TTL", func(t *testing.T) {
		s, clock := newStore()
		require.NoError(t, s.Put(ctx, "a", SessionRecord{}))

		clock.Advance(DefaultSessionTTL + time.Second)

		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("Access Slides Expiry", func(t *testing.T) {
		s, clock := newStore()
		require.NoError(t, s.Put(ctx, "a", SessionRecord{}))

		clock.Advance(DefaultSessionTTL - time.Second)
		_, err := s.Get(ctx, "a")
		require.NoError(t, err)

		clock.Advance(DefaultSessionTTL - time.Second)
		require.NoError(t, s.Extend(ctx, "a"))

		clock.Advance(DefaultSessionTTL - time.Second)
		_, err = s.Get(ctx, "a")
		assert.NoError(t, err)
	})

	t.Run("Extend Missing", func(t *testing.T) {
		s, _ := newStore()
		assert.ErrorIs(t, s.Extend(ctx, "missing"), shared.ErrSessionNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		s, _ := newStore()
		require.NoError(t, s.Put(ctx, "a", SessionRecord{Progress: 10}))

		rec, err := s.Update(ctx, "a", func(r *SessionRecord) { r.Progress = 50 })
		require.NoError(t, err)
		assert.Equal(t, 50, rec.Progress)

		rec, _ = s.Get(ctx, "a")
		assert.Equal(t, 50, rec.Progress)

		_, err = s.Update(ctx, "missing", func(r *SessionRecord) {})
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("Count Clear Delete", func(t *testing.T) {
		s, clock := newStore()
		require.NoError(t, s.Put(ctx, "old", SessionRecord{}))
		clock.Advance(DefaultSessionTTL / 2)
		require.NoError(t, s.Put(ctx, "a", SessionRecord{}))
		require.NoError(t, s.Put(ctx, "b", SessionRecord{}))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		clock.Advance(DefaultSessionTTL/2 + time.Second)
		n, _ = s.Count(ctx)
		assert.Equal(t, 2, n, "expired sessions are not counted")

		require.NoError(t, s.Delete(ctx, "a"))
		n, _ = s.Count(ctx)
		assert.Equal(t, 1, n)

		require.NoError(t, s.Clear(ctx))
		n, _ = s.Count(ctx)
		assert.Zero(t, n)
	})
}

func TestNewSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory Without Redis Address", func(t *testing.T) {
		store := NewSessionStore(ctx, shared.CacheConfig{}, nil)
		assert.Equal(t, StorageMemory, store.Kind())
	})

	t.Run("Memory Fallback When Redis Unreachable", func(t *testing.T) {
		store := NewSessionStore(ctx, shared.CacheConfig{RedisAddr: "127.0.0.1:1", SessionTTLSeconds: 60}, nil)
		assert.Equal(t, StorageMemory, store.Kind())

		mem, ok := store.(*MemoryStore)
		require.True(t, ok)
		assert.Equal(t, time.Minute, mem.ttl)
	})

	t.Run("Session Key", func(t *testing.T) {
		assert.Equal(t, "session:abc", SessionKey("abc"))
	})
}
