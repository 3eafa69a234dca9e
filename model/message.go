package model

import (
	"time"

	"orchat/tools"
)

// Message represents a chat message in the conversation
type Message struct {
	Role      string
	Content   string // Raw content from the provider
	Rendered  string // Cached rendered markdown
	Timestamp time.Time

	// Fragment replaces the textual content in the transcript when the
	// message is a tool call. Never persisted; rebuilt on conversation load.
	Fragment tools.Fragment
}
