package mind

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amora-bot/internal/storage"
)

func TestSessionCache_FIFOEviction(t *testing.T) {
	c := NewSessionCache(3)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), storage.Session{ID: int64(i + 1)})
	}

	// Read the oldest entry; insertion-order eviction must ignore it.
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Put("k3", storage.Session{ID: 4})

	_, ok = c.Get("k0")
	assert.False(t, ok, "oldest-inserted entry should be evicted despite the read")
	for i := 1; i <= 3; i++ {
		_, ok := c.Get(fmt.Sprintf("k%d", i))
		assert.True(t, ok)
	}
	assert.Equal(t, 3, c.Len())
}

func TestSessionCache_PutExistingKeepsPosition(t *testing.T) {
	c := NewSessionCache(2)
	c.Put("a", storage.Session{ID: 1})
	c.Put("b", storage.Session{ID: 2})
	c.Put("a", storage.Session{ID: 10}) // replace, not reinsert
	c.Put("c", storage.Session{ID: 3})

	_, ok := c.Get("a")
	assert.False(t, ok, "a stays oldest-inserted and goes first")
	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ID)
}

func TestSessionCache_Remove(t *testing.T) {
	c := NewSessionCache(2)
	c.Put("a", storage.Session{ID: 1})
	c.Remove("a")
	assert.Equal(t, 0, c.Len())

	// Removed keys must also leave the eviction order.
	c.Put("b", storage.Session{ID: 2})
	c.Put("c", storage.Session{ID: 3})
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestEvictedSessionRetrievableFromStore(t *testing.T) {
	engine, _ := testEngine(t)
	engine.Sessions.cache = NewSessionCache(2)
	ctx := context.Background()

	first := ident("c0")
	ids := make([]int64, 0, 3)
	for _, ch := range []string{"c0", "c1", "c2"} {
		sess := engine.Sessions.GetOrCreate(ctx, ident(ch))
		require.Greater(t, sess.ID, int64(0))
		ids = append(ids, sess.ID)
	}

	_, cached := engine.Sessions.Cache().Get(first.Key())
	assert.False(t, cached, "first-inserted identity should have been evicted")

	// Store fallback still serves it, with the same row.
	again := engine.Sessions.GetOrCreate(ctx, first)
	assert.Equal(t, ids[0], again.ID)
}
