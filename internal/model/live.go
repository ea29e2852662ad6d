package model

import (
	"time"
)

// ISOMillis is the layout used for live message timestamps and turn keys.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// Fragment is one incremental piece of streamed conversational text.
type Fragment struct {
	Role    Role
	Text    string
	Final   bool
	Replace bool
	// TurnID identifies the turn explicitly. When empty the turn is keyed by CreatedAt.
	TurnID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TurnKey returns the join key of the turn the fragment belongs to.
func (f Fragment) TurnKey() string {
	if f.TurnID != "" {
		return f.TurnID
	}
	return FormatISO(f.CreatedAt)
}

// Content is the role-tagged text of a live message.
type Content struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// LiveMessage is an in-memory, not yet persisted message. Values are never mutated in place:
// every change produces a new *LiveMessage.
type LiveMessage struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	Content        Content `json:"content"`
	Final          bool    `json:"final"`
	TurnKey        string  `json:"turn_key"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// LiveSnapshot is what live subscribers receive after each change.
type LiveSnapshot struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []*LiveMessage `json:"messages"`
	Version        uint64         `json:"version"`
}

// AudioEvent announces a playable asset sent by the bot.
type AudioEvent struct {
	ConversationID string `json:"conversation_id"`
	FileURL        string `json:"file_url"`
}
