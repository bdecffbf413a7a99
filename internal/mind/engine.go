// Package mind is the conversational state engine: durable sessions with a
// bounded cache, TTL-bound ephemeral interaction modes, per-command
// cooldowns, and the affection scorer feeding response personalization.
package mind

import (
	"context"

	"amora-bot/internal/storage"
)

// Engine bundles the state components behind one constructor-injected value.
// No package-level singletons: tests create isolated engines at will.
type Engine struct {
	Sessions  *Sessions
	Modes     *Modes
	Cooldowns *Cooldowns
	Affection *Affection
	Composer  *Composer
}

func NewEngine(store *storage.Storage, sessionCacheSize int) *Engine {
	sessions := NewSessions(store, sessionCacheSize)
	affection := NewAffection(store)
	return &Engine{
		Sessions:  sessions,
		Modes:     NewModes(store),
		Cooldowns: NewCooldowns(store),
		Affection: affection,
		Composer:  NewComposer(affection, sessions),
	}
}

// Run starts the engine's background work (the session flusher) until ctx is
// done. The expiry sweeper belongs to the storage layer and is started
// separately.
func (e *Engine) Run(ctx context.Context) {
	e.Sessions.RunFlusher(ctx)
}
