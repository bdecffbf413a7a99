package mind

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"amora-bot/internal/storage"
)

// FlushInterval is how often the dirty-session queue is drained.
const FlushInterval = 30 * time.Second

// Sessions manages conversation sessions: a bounded cache over the durable
// store, plus an advisory flush queue of recently mutated session ids. The
// store stays the source of truth; the cache never holds unwritten state.
type Sessions struct {
	store *storage.Storage
	cache *SessionCache
	keep  int

	mu    sync.Mutex
	dirty map[int64]struct{}
}

func NewSessions(store *storage.Storage, cacheSize int) *Sessions {
	return &Sessions{
		store: store,
		cache: NewSessionCache(cacheSize),
		keep:  storage.DefaultMessagesPerSession,
		dirty: make(map[int64]struct{}),
	}
}

// Cache exposes the underlying session cache.
func (m *Sessions) Cache() *SessionCache { return m.cache }

// GetOrCreate returns the session for id, from cache when possible. The
// returned struct is the caller's private copy; cached state only changes
// through Put. A storage failure degrades to a transient, unpersisted session
// so the caller can keep responding.
func (m *Sessions) GetOrCreate(ctx context.Context, id storage.Identity) *storage.Session {
	if sess, ok := m.cache.Get(id.Key()); ok {
		return &sess
	}
	sess, err := m.store.GetOrCreateSession(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Msg("session lookup failed, using transient session")
		return &storage.Session{Identity: id, UpdatedAt: time.Now()}
	}
	m.cache.Put(id.Key(), *sess)
	return sess
}

// RecordExchange appends a user/assistant message pair, updates the session's
// last bot message, and rotates history past the per-session cap.
func (m *Sessions) RecordExchange(ctx context.Context, id storage.Identity, userMsg, botMsg string) {
	sess := m.GetOrCreate(ctx, id)
	if sess.ID == 0 {
		return // transient fallback, nothing durable to write to
	}

	if _, err := m.store.AppendMessage(ctx, sess.ID, "user", userMsg); err != nil {
		log.Warn().Err(err).Int64("session", sess.ID).Msg("failed to append user message")
		return
	}
	if _, err := m.store.AppendMessage(ctx, sess.ID, "assistant", botMsg); err != nil {
		log.Warn().Err(err).Int64("session", sess.ID).Msg("failed to append assistant message")
	}
	if err := m.store.SetLastBotMessage(ctx, sess.ID, botMsg); err != nil {
		log.Warn().Err(err).Int64("session", sess.ID).Msg("failed to set last bot message")
	}
	if err := m.store.RotateMessages(ctx, sess.ID, m.keep); err != nil {
		log.Warn().Err(err).Int64("session", sess.ID).Msg("failed to rotate messages")
	}

	sess.LastBotMessage.String = botMsg
	sess.LastBotMessage.Valid = true
	sess.UpdatedAt = time.Now()
	m.cache.Put(id.Key(), *sess)
	m.markDirty(sess.ID)
}

// Recent returns up to limit messages of the identity's session, oldest first.
func (m *Sessions) Recent(ctx context.Context, id storage.Identity, limit int) []storage.Message {
	sess := m.GetOrCreate(ctx, id)
	if sess.ID == 0 {
		return nil
	}
	msgs, err := m.store.RecentMessages(ctx, sess.ID, limit)
	if err != nil {
		log.Warn().Err(err).Int64("session", sess.ID).Msg("failed to load recent messages")
		return nil
	}
	return msgs
}

// SaveSummary persists a summary produced by an external summarizer and
// refreshes the cached session copy.
func (m *Sessions) SaveSummary(ctx context.Context, id storage.Identity, content string) {
	sess := m.GetOrCreate(ctx, id)
	if sess.ID == 0 {
		return
	}
	if err := m.store.AddSummary(ctx, sess.ID, content); err != nil {
		log.Warn().Err(err).Int64("session", sess.ID).Msg("failed to save summary")
		return
	}
	sess.Summary.String = content
	sess.Summary.Valid = true
	m.cache.Put(id.Key(), *sess)
	m.markDirty(sess.ID)
}

// Reset drops the identity's session from both layers.
func (m *Sessions) Reset(ctx context.Context, id storage.Identity) {
	if err := m.store.ResetSession(ctx, id); err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Msg("failed to reset session")
		return
	}
	m.cache.Remove(id.Key())
}

func (m *Sessions) markDirty(sessionID int64) {
	m.mu.Lock()
	m.dirty[sessionID] = struct{}{}
	m.mu.Unlock()
}

// Flush drains the dirty queue and returns how many sessions it held. The
// queue is advisory bookkeeping; durability never depends on it.
func (m *Sessions) Flush() int {
	m.mu.Lock()
	n := len(m.dirty)
	m.dirty = make(map[int64]struct{})
	m.mu.Unlock()
	return n
}

// RunFlusher drains the dirty queue on a fixed timer until ctx is done.
func (m *Sessions) RunFlusher(ctx context.Context) {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Flush(); n > 0 {
				log.Debug().Int("sessions", n).Msg("session flush")
			}
		}
	}
}
