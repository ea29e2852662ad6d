package model

import (
	"encoding/json"
	"strings"
)

// EventType is the wire name of a realtime transport event.
type EventType string

const (
	EventBotLLMStarted       EventType = "bot-llm-started"
	EventBotLLMText          EventType = "bot-llm-text"
	EventBotLLMStopped       EventType = "bot-llm-stopped"
	EventBotStartedSpeaking  EventType = "bot-started-speaking"
	EventBotTTSText          EventType = "bot-tts-text"
	EventBotStoppedSpeaking  EventType = "bot-stopped-speaking"
	EventUserStartedSpeaking EventType = "user-started-speaking"
	EventUserStoppedSpeaking EventType = "user-stopped-speaking"
	EventUserTranscription   EventType = "user-transcription"
	EventServerMessage       EventType = "server-message"
	EventDisconnected        EventType = "disconnected"
)

// RealtimeLabel tags realtime transport messages.
const RealtimeLabel = "rtvi-ai"

// RealtimeEvent is one message on the realtime transport.
type RealtimeEvent struct {
	Label string          `json:"label,omitempty"`
	Type  EventType       `json:"type"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TextData is the payload of bot-llm-text and bot-tts-text.
type TextData struct {
	Text string `json:"text"`
}

// TranscriptData is the payload of user-transcription.
type TranscriptData struct {
	Text      string `json:"text"`
	Final     bool   `json:"final"`
	Timestamp string `json:"timestamp,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ServerMessageData is the payload of server-message.
type ServerMessageData struct {
	FileURL string `json:"fileUrl"`
}

// IngestEnvelope is how the bot wraps batches on the broker.
type IngestEnvelope struct {
	Pattern string         `json:"pattern"`
	Data    *IngestPayload `json:"data"`
}

// IngestPayload is a batch of finalized conversation turns.
type IngestPayload struct {
	Messages       []IngestMessage `json:"messages"`
	ConversationID string          `json:"conversation_id"`
	LanguageCode   string          `json:"language_code"`
	UserID         string          `json:"user_id"`
	ParticipantID  string          `json:"participant_id"`
	TurnID         string          `json:"turn_id,omitempty"`
}

// IngestMessage is one finalized line. Content is either a string or a list of parts.
type IngestMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentPart is one element of a list-shaped message content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text flattens the message content to plain text.
func (m IngestMessage) Text() (string, error) {
	raw := strings.TrimSpace(string(m.Content))
	if raw == "" || raw == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(m.Content, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type != "" && p.Type != "text" {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// TextContent builds a list-shaped content with a single text part.
func TextContent(text string) json.RawMessage {
	data, _ := json.Marshal([]ContentPart{{Type: "text", Text: text}})
	return data
}
