package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// conversationDB is the sqlite layer underneath the Store. It is only ever
// touched by the worker goroutine.
type conversationDB struct {
	db *sql.DB
}

func openDB(path string) (*conversationDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		preview TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		messages TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_timestamp ON conversations(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &conversationDB{db: db}, nil
}

func (d *conversationDB) close() error {
	return d.db.Close()
}

// put writes the full conversation record, last writer wins. There are no
// partial-field updates; callers read-modify-write.
func (d *conversationDB) put(conv *Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = d.db.Exec(
		`INSERT INTO conversations (id, title, preview, timestamp, messages)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   preview = excluded.preview,
		   timestamp = excluded.timestamp,
		   messages = excluded.messages`,
		conv.ID, conv.Title, conv.Preview, conv.Timestamp, string(messages),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (d *conversationDB) get(id string) (*Conversation, error) {
	row := d.db.QueryRow(
		`SELECT id, title, preview, timestamp, messages FROM conversations WHERE id = ?`, id)

	conv, err := scanConversation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// all returns every conversation, newest first.
func (d *conversationDB) all() ([]*Conversation, error) {
	rows, err := d.db.Query(
		`SELECT id, title, preview, timestamp, messages FROM conversations ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (d *conversationDB) delete(id string) error {
	if _, err := d.db.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// search filters the full listing in memory; substring matching over message
// contents needs the decoded records anyway.
func (d *conversationDB) search(query string) ([]*Conversation, error) {
	conversations, err := d.all()
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	matched := conversations[:0]
	for _, conv := range conversations {
		if conv.matches(lower) {
			matched = append(matched, conv)
		}
	}
	return matched, nil
}

func scanConversation(scan func(dest ...any) error) (*Conversation, error) {
	var conv Conversation
	var messages string
	if err := scan(&conv.ID, &conv.Title, &conv.Preview, &conv.Timestamp, &messages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		return nil, fmt.Errorf("corrupt message payload: %w", err)
	}
	return &conv, nil
}
