package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CooldownRecord tracks the last use of a command by an identity. Overwritten
// on each use, never appended.
type CooldownRecord struct {
	Identity        Identity
	Command         string
	LastUsed        time.Time
	DurationSeconds int64
}

// Remaining returns how long until the cooldown lapses at now; zero or
// negative means no cooldown.
func (r *CooldownRecord) Remaining(now time.Time) time.Duration {
	return r.LastUsed.Add(time.Duration(r.DurationSeconds) * time.Second).Sub(now)
}

// UpsertCooldown records that command was used by id just now, with the given
// effective duration.
func (s *Storage) UpsertCooldown(ctx context.Context, id Identity, command string, durationSeconds int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cooldown_records (guild_id, channel_id, user_id, command, last_used, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id, channel_id, user_id, command) DO UPDATE SET
			last_used = excluded.last_used,
			duration_seconds = excluded.duration_seconds`,
		id.GuildID, id.ChannelID, id.UserID, command, time.Now().UnixMilli(), durationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cooldown: %w", err)
	}
	return nil
}

// GetCooldown returns the cooldown record for (id, command), or nil when the
// command has never been used by this identity.
func (s *Storage) GetCooldown(ctx context.Context, id Identity, command string) (*CooldownRecord, error) {
	rec := &CooldownRecord{Identity: id, Command: command}
	var last int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_used, duration_seconds FROM cooldown_records
		 WHERE guild_id = ? AND channel_id = ? AND user_id = ? AND command = ?`,
		id.GuildID, id.ChannelID, id.UserID, command,
	).Scan(&last, &rec.DurationSeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cooldown: %w", err)
	}
	rec.LastUsed = time.UnixMilli(last)
	return rec, nil
}
