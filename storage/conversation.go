// Package storage persists conversations in a local sqlite database. All
// access goes through the Store's worker goroutine: callers never touch the
// database handle, which keeps the UI loop free of storage I/O and leaves the
// door open to moving the store out of process without touching callers.
package storage

import (
	"strings"
	"time"
)

// Message is one chat message within a conversation. Messages are append-only
// and never mutated after creation. Timestamps are epoch milliseconds.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the message timestamp as a time.Time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Conversation is the persisted conversation record. The id is generated
// lazily on the first message and stays stable for the record's lifetime.
// Title and preview are set once from the first user message; only an
// explicit rename changes them afterwards.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	Timestamp int64     `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// DisplayTitle returns the best available label for listing.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Preview != "" {
		return c.Preview
	}
	return "New conversation"
}

// UpdatedAt returns the last-modified time.
func (c *Conversation) UpdatedAt() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// matches reports whether the conversation matches a case-insensitive
// substring query across title, preview and message contents.
func (c *Conversation) matches(lowerQuery string) bool {
	if strings.Contains(strings.ToLower(c.Title), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Preview), lowerQuery) {
		return true
	}
	for _, msg := range c.Messages {
		if strings.Contains(strings.ToLower(msg.Content), lowerQuery) {
			return true
		}
	}
	return false
}

// snippet trims content to a listing-sized preview.
func snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
