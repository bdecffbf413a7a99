package mind

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"amora-bot/internal/storage"
)

// Score weighting. Hugs and love counters are capped before scaling so a
// single counter cannot saturate the score alone.
const (
	hugCap  = 20
	loveCap = 50

	hugWeight     = 0.3
	loveWeight    = 0.4
	recencyWeight = 0.3

	scoreCacheTTL      = 5 * time.Minute
	scoreCacheCapacity = 512
)

// Affection tier labels at 0.3 / 0.7.
const (
	LevelLow    = "baixo"
	LevelMedium = "medio"
	LevelHigh   = "alto"
)

// Relationship tiers at 0.2 / 0.4 / 0.6 / 0.8.
const (
	RelStranger     = "stranger"
	RelAcquaintance = "acquaintance"
	RelFriend       = "friend"
	RelCloseFriend  = "close_friend"
	RelBestFriend   = "best_friend"
)

type scoreEntry struct {
	score float64
	at    time.Time
}

// Affection derives a normalized relationship score from the accumulated
// counters and interaction recency. Scores are cached per identity with a
// short TTL in a capacity-bounded map; every mutation invalidates immediately.
type Affection struct {
	store *storage.Storage

	mu    sync.Mutex
	cache map[string]scoreEntry
	fifo  fifoIndex
}

func NewAffection(store *storage.Storage) *Affection {
	return &Affection{
		store: store,
		cache: make(map[string]scoreEntry),
		fifo:  fifoIndex{capacity: scoreCacheCapacity},
	}
}

// IncrementHugs adds n hugs for (guild, user) and refreshes last interaction.
func (a *Affection) IncrementHugs(ctx context.Context, id storage.Identity, n int64) {
	a.apply(ctx, id, storage.AffectionDelta{Hugs: n})
}

// IncrementLoveScore adds n love points for (guild, user).
func (a *Affection) IncrementLoveScore(ctx context.Context, id storage.Identity, n int64) {
	a.apply(ctx, id, storage.AffectionDelta{Love: n})
}

// UpdateLastInteraction refreshes the recency timestamp without touching
// either counter.
func (a *Affection) UpdateLastInteraction(ctx context.Context, id storage.Identity) {
	a.apply(ctx, id, storage.AffectionDelta{Touch: true})
}

func (a *Affection) apply(ctx context.Context, id storage.Identity, delta storage.AffectionDelta) {
	if err := a.store.UpsertAffection(ctx, id, delta); err != nil {
		log.Warn().Err(err).Str("stat", id.StatKey()).Msg("failed to update affection")
		return
	}
	a.invalidate(id)
}

func (a *Affection) invalidate(id storage.Identity) {
	key := id.StatKey()
	a.mu.Lock()
	if _, ok := a.cache[key]; ok {
		delete(a.cache, key)
		a.fifo.remove(key)
	}
	a.mu.Unlock()
}

// Score returns the normalized [0,1] affection score for (guild, user).
// Storage failures degrade to zero affection.
func (a *Affection) Score(ctx context.Context, id storage.Identity) float64 {
	key := id.StatKey()
	now := time.Now()

	a.mu.Lock()
	if entry, ok := a.cache[key]; ok && now.Sub(entry.at) < scoreCacheTTL {
		a.mu.Unlock()
		return entry.score
	}
	a.mu.Unlock()

	stat, err := a.store.GetAffection(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("stat", key).Msg("affection lookup failed, scoring as stranger")
		return 0
	}

	score := scoreStat(stat, now)

	a.mu.Lock()
	_, exists := a.cache[key]
	a.cache[key] = scoreEntry{score: score, at: now}
	if evicted, ok := a.fifo.noteInsert(key, exists); ok {
		delete(a.cache, evicted)
	}
	a.mu.Unlock()
	return score
}

func scoreStat(stat *storage.AffectionStat, now time.Time) float64 {
	hugs := float64(stat.HugsGiven)
	if hugs > hugCap {
		hugs = hugCap
	}
	love := float64(stat.LoveScore)
	if love > loveCap {
		love = loveCap
	}

	recency := 0.0
	if !stat.LastInteraction.IsZero() {
		recency = RecencyFactor(now.Sub(stat.LastInteraction))
	}

	score := hugWeight*(hugs/hugCap) + loveWeight*(love/loveCap) + recencyWeight*recency
	return clamp01(score)
}

// RecencyFactor maps time since last interaction to a step-function factor.
func RecencyFactor(since time.Duration) float64 {
	switch {
	case since <= time.Hour:
		return 1.0
	case since <= 24*time.Hour:
		return 0.8
	case since <= 72*time.Hour:
		return 0.5
	case since <= 168*time.Hour:
		return 0.2
	default:
		return 0.1
	}
}

// Level buckets a score into the coarse three-tier label.
func Level(score float64) string {
	switch {
	case score < 0.3:
		return LevelLow
	case score < 0.7:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// RelationshipStatus buckets a score into the finer five-tier label used for
// response personalization.
func RelationshipStatus(score float64) string {
	switch {
	case score < 0.2:
		return RelStranger
	case score < 0.4:
		return RelAcquaintance
	case score < 0.6:
		return RelFriend
	case score < 0.8:
		return RelCloseFriend
	default:
		return RelBestFriend
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
