// Package archive is the local store behind the message, mute-status and
// shortlink tools. The hosted deployment kept this data in DynamoDB; the
// store is a swappable collaborator, so the self-hosted build uses sqlite.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("archive: not found")

// ErrCodeTaken is returned when a custom short code is already in use.
var ErrCodeTaken = errors.New("archive: short code already in use")

const schemaDDL = `
CREATE TABLE IF NOT EXISTS messages (
	chat_id TEXT NOT NULL,
	role    TEXT NOT NULL,
	sort_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	PRIMARY KEY (chat_id, role, sort_id)
);
CREATE TABLE IF NOT EXISTS mute_status (
	chat_id TEXT PRIMARY KEY,
	muted   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS shortlinks (
	code       TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

// Message is one archived chat message.
type Message struct {
	ChatID  string `json:"chat_id"`
	Role    string `json:"role"`
	SortID  int64  `json:"sort_id"`
	Content string `json:"content"`
}

// Store wraps the sqlite database. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive open: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveMessage upserts one message.
func (s *Store) SaveMessage(ctx context.Context, m Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, sort_id, content) VALUES (?, ?, ?, ?)
		 ON CONFLICT (chat_id, role, sort_id) DO UPDATE SET content = excluded.content`,
		m.ChatID, m.Role, m.SortID, m.Content)
	return err
}

// MessageBySortID returns the message with the exact (role, chat, sort id) key.
func (s *Store) MessageBySortID(ctx context.Context, role, chatID string, sortID int64) (Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, role, sort_id, content FROM messages
		 WHERE chat_id = ? AND role = ? AND sort_id = ?`,
		chatID, role, sortID).Scan(&m.ChatID, &m.Role, &m.SortID, &m.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

// MessagesInRange returns messages for chatID with start <= sort_id <= end,
// ordered by sort id.
func (s *Store) MessagesInRange(ctx context.Context, chatID string, start, end int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, role, sort_id, content FROM messages
		 WHERE chat_id = ? AND sort_id BETWEEN ? AND ? ORDER BY sort_id`,
		chatID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ChatID, &m.Role, &m.SortID, &m.Content); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MuteStatus reports whether chatID is muted. Unknown chats are not muted.
func (s *Store) MuteStatus(ctx context.Context, chatID string) (bool, error) {
	var muted int
	err := s.db.QueryRowContext(ctx,
		`SELECT muted FROM mute_status WHERE chat_id = ?`, chatID).Scan(&muted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return muted != 0, err
}

// SetMuteStatus records the mute flag for chatID.
func (s *Store) SetMuteStatus(ctx context.Context, chatID string, muted bool) error {
	flag := 0
	if muted {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mute_status (chat_id, muted) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET muted = excluded.muted`,
		chatID, flag)
	return err
}
