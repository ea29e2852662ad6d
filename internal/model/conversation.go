package model

import (
	"time"
)

// Participants identifies who is who in a conversation for attribution and rendering.
type Participants struct {
	// UserID is the local (human) user.
	UserID string `json:"user_id"`
	// ParticipantID is the AI/bot identity of the conversation.
	ParticipantID string `json:"participant_id"`
}

// SenderFor resolves the sender id of a message with the given role.
func (p Participants) SenderFor(role Role) string {
	if role == RoleUser {
		return p.UserID
	}
	return p.ParticipantID
}

// OpenSessionRequest is the request to open a live session.
type OpenSessionRequest struct {
	ParticipantID string `json:"participant_id"`
}

// SessionInfo describes an open live session.
type SessionInfo struct {
	ConversationID string       `json:"conversation_id"`
	Participants   Participants `json:"participants"`
	OpenedAt       time.Time    `json:"opened_at"`
	LiveMessages   int          `json:"live_messages"`
}

// UserTextRequest is typed user input sent outside the voice channel.
type UserTextRequest struct {
	Text string `json:"text"`
}
