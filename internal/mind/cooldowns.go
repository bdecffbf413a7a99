package mind

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"amora-bot/internal/storage"
)

const (
	cooldownMirrorCapacity = 512

	// burstWindow is the trailing window for burst accounting.
	burstWindow = time.Minute

	// MinCooldown is the floor for the loyal-user reduction.
	MinCooldown = 5 * time.Second

	// LoyalInteractionThreshold is the lifetime interaction count above which
	// a user's cooldowns are halved.
	LoyalInteractionThreshold = 50

	// BurstThreshold is the trailing-minute use count above which cooldowns
	// are doubled.
	BurstThreshold = 5
)

// UsageStats feeds the dynamic cooldown calculation.
type UsageStats struct {
	TotalInteractions int64
	RecentBurst       int
}

// DynamicCooldown derives an effective cooldown from a base duration. Loyal
// users get half (floored at MinCooldown); bursty users get double. Each
// adjustment is a single monotonic factor.
func DynamicCooldown(base time.Duration, stats UsageStats) time.Duration {
	d := base
	if stats.TotalInteractions >= LoyalInteractionThreshold {
		d /= 2
		if d < MinCooldown {
			d = MinCooldown
		}
	}
	if stats.RecentBurst >= BurstThreshold {
		d *= 2
	}
	return d
}

type cooldownEntry struct {
	lastUsed time.Time
	duration time.Duration
}

// Cooldowns rate-limits command usage per (identity, command), mirroring the
// durable store with a capacity-bounded oldest-first map.
type Cooldowns struct {
	store *storage.Storage

	mu     sync.Mutex
	mirror map[string]cooldownEntry
	fifo   fifoIndex
	recent map[string][]time.Time
}

func NewCooldowns(store *storage.Storage) *Cooldowns {
	return &Cooldowns{
		store:  store,
		mirror: make(map[string]cooldownEntry),
		fifo:   fifoIndex{capacity: cooldownMirrorCapacity},
		recent: make(map[string][]time.Time),
	}
}

func cooldownKey(id storage.Identity, command string) string {
	return id.Key() + "|" + command
}

// Remaining reports whether (id, command) is on cooldown and for how long.
// A storage failure degrades to "no cooldown".
func (c *Cooldowns) Remaining(ctx context.Context, id storage.Identity, command string) (time.Duration, bool) {
	key := cooldownKey(id, command)
	now := time.Now()

	c.mu.Lock()
	entry, ok := c.mirror[key]
	c.mu.Unlock()

	if !ok {
		rec, err := c.store.GetCooldown(ctx, id, command)
		if err != nil {
			log.Warn().Err(err).Str("command", command).Msg("cooldown lookup failed, treating as none")
			return 0, false
		}
		if rec == nil {
			return 0, false
		}
		entry = cooldownEntry{lastUsed: rec.LastUsed, duration: time.Duration(rec.DurationSeconds) * time.Second}
		c.mirrorSet(key, entry)
	}

	remaining := entry.lastUsed.Add(entry.duration).Sub(now)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// Set records a use of command by id with the given effective duration. The
// store column holds whole seconds, so the mirror gets the same truncated
// duration and both layers agree across restarts.
func (c *Cooldowns) Set(ctx context.Context, id storage.Identity, command string, d time.Duration) {
	seconds := int64(d / time.Second)
	if err := c.store.UpsertCooldown(ctx, id, command, seconds); err != nil {
		log.Warn().Err(err).Str("command", command).Msg("failed to set cooldown")
		return
	}
	d = time.Duration(seconds) * time.Second
	c.mirrorSet(cooldownKey(id, command), cooldownEntry{lastUsed: time.Now(), duration: d})
}

// NoteUse records a command use by id for burst accounting.
func (c *Cooldowns) NoteUse(id storage.Identity) {
	key := id.Key()
	c.mu.Lock()
	c.recent[key] = append(c.pruneLocked(key), time.Now())
	c.mu.Unlock()
}

// Usage gathers the inputs for DynamicCooldown: lifetime interaction volume
// from the affection counters and uses within the trailing window. A storage
// failure degrades to zero lifetime interactions.
func (c *Cooldowns) Usage(ctx context.Context, id storage.Identity) UsageStats {
	var total int64
	stat, err := c.store.GetAffection(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("stat", id.StatKey()).Msg("usage lookup failed, assuming new user")
	} else {
		total = stat.HugsGiven + stat.LoveScore
	}

	key := id.Key()
	c.mu.Lock()
	kept := c.pruneLocked(key)
	c.recent[key] = kept
	burst := len(kept)
	c.mu.Unlock()

	return UsageStats{TotalInteractions: total, RecentBurst: burst}
}

// pruneLocked drops uses older than the burst window. Caller holds mu.
func (c *Cooldowns) pruneLocked(key string) []time.Time {
	cutoff := time.Now().Add(-burstWindow)
	times := c.recent[key]
	kept := times[:0]
	for _, ts := range times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(c.recent, key)
		return nil
	}
	return kept
}

func (c *Cooldowns) mirrorSet(key string, entry cooldownEntry) {
	c.mu.Lock()
	_, exists := c.mirror[key]
	c.mirror[key] = entry
	if evicted, ok := c.fifo.noteInsert(key, exists); ok {
		delete(c.mirror, evicted)
	}
	c.mu.Unlock()
}
