package mind

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amora-bot/internal/storage"
)

func TestSessions_GetOrCreateCaches(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	first := engine.Sessions.GetOrCreate(ctx, id)
	require.Greater(t, first.ID, int64(0))

	cached, ok := engine.Sessions.Cache().Get(id.Key())
	require.True(t, ok)
	assert.Equal(t, first.ID, cached.ID)

	// Each lookup hands out a private copy of the cached row.
	second := engine.Sessions.GetOrCreate(ctx, id)
	assert.Equal(t, first.ID, second.ID)
	assert.NotSame(t, first, second)
}

func TestSessions_ConcurrentRecordExchange(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	engine.Sessions.GetOrCreate(ctx, id) // warm the cache

	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				engine.Sessions.RecordExchange(ctx, id, "oi", fmt.Sprintf("resposta %d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	sess := engine.Sessions.GetOrCreate(ctx, id)
	require.True(t, sess.LastBotMessage.Valid)
	assert.Contains(t, sess.LastBotMessage.String, "resposta")
	assert.Len(t, engine.Sessions.Recent(ctx, id, 200), storage.DefaultMessagesPerSession)
}

func TestSessions_RecordExchange(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	engine.Sessions.RecordExchange(ctx, id, "oi Amora", "oi! que bom te ver")

	msgs := engine.Sessions.Recent(ctx, id, 10)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "oi Amora", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)

	sess, err := store.GetOrCreateSession(ctx, id)
	require.NoError(t, err)
	require.True(t, sess.LastBotMessage.Valid)
	assert.Equal(t, "oi! que bom te ver", sess.LastBotMessage.String)

	assert.Equal(t, 1, engine.Sessions.Flush())
	assert.Equal(t, 0, engine.Sessions.Flush())
}

func TestSessions_RecordExchangeRotates(t *testing.T) {
	engine, _ := testEngine(t)
	engine.Sessions.keep = 4
	ctx := context.Background()
	id := ident("c1")

	for i := 0; i < 5; i++ {
		engine.Sessions.RecordExchange(ctx, id, "ping", "pong")
	}

	msgs := engine.Sessions.Recent(ctx, id, 100)
	assert.Len(t, msgs, 4)
}

func TestSessions_SaveSummary(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	engine.Sessions.SaveSummary(ctx, id, "usuário adora coelhos")

	sess := engine.Sessions.GetOrCreate(ctx, id)
	require.True(t, sess.Summary.Valid)
	assert.Equal(t, "usuário adora coelhos", sess.Summary.String)

	all, err := store.Summaries(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSessions_Reset(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	old := engine.Sessions.GetOrCreate(ctx, id)
	engine.Sessions.RecordExchange(ctx, id, "oi", "olá")
	engine.Sessions.Reset(ctx, id)

	fresh := engine.Sessions.GetOrCreate(ctx, id)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Empty(t, engine.Sessions.Recent(ctx, id, 10))
}
