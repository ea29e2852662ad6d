// Package model defines data structures for the voice transcript pipeline.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a role the live pipeline understands.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// PersistedMessage is a durable message row. Rows are created only by the ingestion consumer.
type PersistedMessage struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           Role      `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	LanguageCode   string    `db:"language_code" json:"language_code"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	ExtraMetadata  string    `db:"extra_metadata" json:"extra_metadata"`
	IdempotencyKey string    `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ListMessagesResponse is the response for listing persisted messages.
type ListMessagesResponse struct {
	Messages []PersistedMessage `json:"messages"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
	HasMore  bool               `json:"has_more"`
}

// TranscriptEntry is one rendered line of the merged transcript.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	Me        bool      `json:"me"`
	Live      bool      `json:"live"`
	Final     bool      `json:"final"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptResponse is the merged view of persisted history followed by live messages.
type TranscriptResponse struct {
	ConversationID string            `json:"conversation_id"`
	Entries        []TranscriptEntry `json:"entries"`
	PersistedTotal int               `json:"persisted_total"`
}

// ErrorEvent represents an error event pushed to stream subscribers.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent represents a heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
