// /internal/storage/storage.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	// MaxMessageLen is the rune cap applied to message content on insert.
	MaxMessageLen = 2000

	// DefaultMessagesPerSession is the rotation cap per session.
	DefaultMessagesPerSession = 50
)

// Storage is the durable store. It is the only component allowed to perform
// durable writes; every in-memory structure above it is an invalidatable
// mirror.
type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time keeps SQLITE_BUSY out of the hot path.
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}
	return s, nil
}

func (s *Storage) initTables() error {
	queries := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			last_bot_message TEXT,
			summary TEXT,
			updated_at INTEGER NOT NULL,
			UNIQUE(guild_id, channel_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS affection_stats (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			hugs_given INTEGER NOT NULL DEFAULT 0,
			love_score INTEGER NOT NULL DEFAULT 0,
			last_interaction INTEGER NOT NULL,
			PRIMARY KEY (guild_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS mode_records (
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			state_payload TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (guild_id, channel_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cooldown_records (
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			command TEXT NOT NULL,
			last_used INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			PRIMARY KEY (guild_id, channel_id, user_id, command)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_session ON summaries(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_modes_expires ON mode_records(expires_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}
	return nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
