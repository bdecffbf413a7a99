package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is the durable conversational record for one identity.
type Session struct {
	ID             int64
	Identity       Identity
	LastBotMessage sql.NullString
	Summary        sql.NullString
	UpdatedAt      time.Time
}

// Message is one exchange line inside a session.
type Message struct {
	ID        int64
	SessionID int64
	Role      string // "user" | "assistant"
	Content   string
	CreatedAt time.Time
}

// Summary is a persisted condensation of a session's history.
type Summary struct {
	ID        int64
	SessionID int64
	Content   string
	CreatedAt time.Time
}

// GetOrCreateSession returns the session row for id, inserting one lazily on
// first contact. Idempotent: INSERT OR IGNORE plus select, never a duplicate.
func (s *Storage) GetOrCreateSession(ctx context.Context, id Identity) (*Session, error) {
	now := time.Now().UnixMilli()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (guild_id, channel_id, user_id, updated_at) VALUES (?, ?, ?, ?)`,
		id.GuildID, id.ChannelID, id.UserID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var sess Session
	var updated int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, last_bot_message, summary, updated_at FROM sessions
		 WHERE guild_id = ? AND channel_id = ? AND user_id = ?`,
		id.GuildID, id.ChannelID, id.UserID,
	).Scan(&sess.ID, &sess.LastBotMessage, &sess.Summary, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	sess.Identity = id
	sess.UpdatedAt = time.UnixMilli(updated)
	return &sess, nil
}

// AppendMessage inserts a message, truncating content beyond MaxMessageLen
// runes, and touches the session's updated_at.
func (s *Storage) AppendMessage(ctx context.Context, sessionID int64, role, content string) (int64, error) {
	if r := []rune(content); len(r) > MaxMessageLen {
		content = string(r[:MaxMessageLen])
	}
	now := time.Now().UnixMilli()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, role, content, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID,
	); err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	}
	return id, nil
}

// RotateMessages deletes the oldest rows beyond keepCount for a session.
func (s *Storage) RotateMessages(ctx context.Context, sessionID int64, keepCount int) error {
	if keepCount <= 0 {
		keepCount = DefaultMessagesPerSession
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE session_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		sessionID, sessionID, keepCount,
	)
	if err != nil {
		return fmt.Errorf("failed to rotate messages: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages in chronological order.
func (s *Storage) RecentMessages(ctx context.Context, sessionID int64, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM messages
		 WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var created int64
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = time.UnixMilli(created)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse so messages come out oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SetLastBotMessage records the bot's latest reply on the session row.
func (s *Storage) SetLastBotMessage(ctx context.Context, sessionID int64, content string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_bot_message = ?, updated_at = ? WHERE id = ?`,
		content, time.Now().UnixMilli(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to set last bot message: %w", err)
	}
	return nil
}

// AddSummary persists a new summary and mirrors it into the session's summary
// field, which always holds the most recent one.
func (s *Storage) AddSummary(ctx context.Context, sessionID int64, content string) error {
	now := time.Now().UnixMilli()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (session_id, content, created_at) VALUES (?, ?, ?)`,
		sessionID, content, now,
	); err != nil {
		return fmt.Errorf("failed to add summary: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET summary = ? WHERE id = ?`, content, sessionID,
	); err != nil {
		return fmt.Errorf("failed to mirror summary: %w", err)
	}
	return nil
}

// Summaries returns a session's summaries in chronological order.
func (s *Storage) Summaries(ctx context.Context, sessionID int64) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, content, created_at FROM summaries
		 WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var created int64
		if err := rows.Scan(&sm.ID, &sm.SessionID, &sm.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sm.CreatedAt = time.UnixMilli(created)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// ResetSession deletes a session and, via cascade, its messages and summaries.
func (s *Storage) ResetSession(ctx context.Context, id Identity) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE guild_id = ? AND channel_id = ? AND user_id = ?`,
		id.GuildID, id.ChannelID, id.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}
