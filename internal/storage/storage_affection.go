package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AffectionStat holds the per-(guild, user) interaction counters.
type AffectionStat struct {
	GuildID         string
	UserID          string
	HugsGiven       int64
	LoveScore       int64
	LastInteraction time.Time
}

// AffectionDelta describes one atomic stat mutation. Touch updates
// last_interaction even when both counters are zero.
type AffectionDelta struct {
	Hugs  int64
	Love  int64
	Touch bool
}

// UpsertAffection applies delta as a single ON CONFLICT upsert. Concurrent
// increments for the same identity never lose updates: the new counter value
// is computed inside the statement, not in application code.
func (s *Storage) UpsertAffection(ctx context.Context, id Identity, delta AffectionDelta) error {
	now := time.Now().UnixMilli()

	query := `INSERT INTO affection_stats (guild_id, user_id, hugs_given, love_score, last_interaction)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET
			hugs_given = hugs_given + excluded.hugs_given,
			love_score = love_score + excluded.love_score`
	if delta.Touch || delta.Hugs != 0 || delta.Love != 0 {
		query += `, last_interaction = excluded.last_interaction`
	}

	if _, err := s.db.ExecContext(ctx, query, id.GuildID, id.UserID, delta.Hugs, delta.Love, now); err != nil {
		return fmt.Errorf("failed to upsert affection: %w", err)
	}
	return nil
}

// GetAffection returns the stat row for (guild, user), or a zero-counter stat
// when none exists yet.
func (s *Storage) GetAffection(ctx context.Context, id Identity) (*AffectionStat, error) {
	stat := &AffectionStat{GuildID: id.GuildID, UserID: id.UserID}
	var last int64
	err := s.db.QueryRowContext(ctx,
		`SELECT hugs_given, love_score, last_interaction FROM affection_stats
		 WHERE guild_id = ? AND user_id = ?`,
		id.GuildID, id.UserID,
	).Scan(&stat.HugsGiven, &stat.LoveScore, &last)
	if err == sql.ErrNoRows {
		return stat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get affection: %w", err)
	}
	stat.LastInteraction = time.UnixMilli(last)
	return stat, nil
}

// ResetAffection zeroes the counters for (guild, user). Explicit resets only;
// stats are otherwise permanent.
func (s *Storage) ResetAffection(ctx context.Context, id Identity) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM affection_stats WHERE guild_id = ? AND user_id = ?`,
		id.GuildID, id.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset affection: %w", err)
	}
	return nil
}
