package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ModeRecord is an ephemeral interaction mode for one identity. ExpiresAt is
// stored as an absolute instant so active modes survive a restart without
// drifting; never persist a remaining-duration.
type ModeRecord struct {
	Identity     Identity
	Mode         string
	StatePayload string // opaque JSON, owned by the mode protocol
	ExpiresAt    time.Time
}

// UpsertMode writes the mode record for id, replacing any prior one. The
// primary key on the identity triple enforces at most one active mode.
func (s *Storage) UpsertMode(ctx context.Context, id Identity, mode, payload string, ttl time.Duration) error {
	expires := time.Now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mode_records (guild_id, channel_id, user_id, mode, state_payload, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id, channel_id, user_id) DO UPDATE SET
			mode = excluded.mode,
			state_payload = excluded.state_payload,
			expires_at = excluded.expires_at`,
		id.GuildID, id.ChannelID, id.UserID, mode, payload, expires,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mode: %w", err)
	}
	return nil
}

// UpdateModePayload overwrites the payload without touching expires_at.
func (s *Storage) UpdateModePayload(ctx context.Context, id Identity, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE mode_records SET state_payload = ?
		 WHERE guild_id = ? AND channel_id = ? AND user_id = ?`,
		payload, id.GuildID, id.ChannelID, id.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update mode payload: %w", err)
	}
	return nil
}

// GetMode returns the mode record for id, or nil when none exists. Expiry is
// the caller's concern: expired rows are still returned until swept.
func (s *Storage) GetMode(ctx context.Context, id Identity) (*ModeRecord, error) {
	rec := &ModeRecord{Identity: id}
	var expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT mode, state_payload, expires_at FROM mode_records
		 WHERE guild_id = ? AND channel_id = ? AND user_id = ?`,
		id.GuildID, id.ChannelID, id.UserID,
	).Scan(&rec.Mode, &rec.StatePayload, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mode: %w", err)
	}
	rec.ExpiresAt = time.UnixMilli(expires)
	return rec, nil
}

// DeleteMode removes the mode record for id, if any.
func (s *Storage) DeleteMode(ctx context.Context, id Identity) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM mode_records WHERE guild_id = ? AND channel_id = ? AND user_id = ?`,
		id.GuildID, id.ChannelID, id.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete mode: %w", err)
	}
	return nil
}

// PurgeExpired deletes mode records past their expiry and sessions idle
// longer than retention. Returns (modes purged, sessions purged).
func (s *Storage) PurgeExpired(ctx context.Context, retention time.Duration) (int64, int64, error) {
	now := time.Now()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mode_records WHERE expires_at <= ?`, now.UnixMilli(),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to purge expired modes: %w", err)
	}
	modes, _ := res.RowsAffected()

	cutoff := now.Add(-retention).UnixMilli()
	res, err = s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at <= ?`, cutoff,
	)
	if err != nil {
		return modes, 0, fmt.Errorf("failed to purge idle sessions: %w", err)
	}
	sessions, _ := res.RowsAffected()

	return modes, sessions, nil
}
