// Package bot is a reference voice bot. It plays a conversation turn onto the realtime
// transport the way a speech pipeline would, and hands the finalized turn to the broker.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/llm"
	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

// Config describes the conversation the bot speaks in.
type Config struct {
	ConversationID string
	UserID         string
	ParticipantID  string
	LanguageCode   string
	Model          string
	SystemPrompt   string
	// Conversational also emits the spoken (TTS) events for the reply.
	Conversational bool
	// WordDelay paces the simulated transcription and speech.
	WordDelay time.Duration
}

// Turn is the result of one exchange.
type Turn struct {
	ID       string
	User     string
	Reply    string
	Sequence uint64
}

// Bot drives one conversation.
type Bot struct {
	cfg     Config
	events  EventPublisher
	batches BatchPublisher
	llm     llm.Client
	logger  *logger.Logger

	history []llm.ChatMessage
	newID   func() string
}

// New creates a bot.
func New(cfg Config, events EventPublisher, batches BatchPublisher, client llm.Client, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Global()
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en"
	}
	return &Bot{
		cfg:     cfg,
		events:  events,
		batches: batches,
		llm:     client,
		logger:  log.ForConversation(cfg.ConversationID).Named("bot"),
		newID:   func() string { return uuid.NewString() },
	}
}

// Utter plays a spoken user utterance followed by the bot's reply, then publishes the turn.
func (b *Bot) Utter(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("utterance is empty")
	}

	if err := b.transcribe(ctx, text); err != nil {
		return nil, err
	}
	return b.respond(ctx, text, true)
}

// Answer replies to text the user typed. Only the reply is played on the transport because
// typed text reaches the live view through the API.
func (b *Bot) Answer(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}
	return b.respond(ctx, text, false)
}

// SendAsset announces a playable file.
func (b *Bot) SendAsset(fileURL string) error {
	if err := b.events.Publish(model.EventServerMessage, model.ServerMessageData{FileURL: fileURL}); err != nil {
		return err
	}
	return b.events.Flush()
}

// Disconnect tells listeners the call is over.
func (b *Bot) Disconnect() error {
	if err := b.events.Publish(model.EventDisconnected, nil); err != nil {
		return err
	}
	return b.events.Flush()
}

// transcribe emits the user speech events with growing partial transcripts.
func (b *Bot) transcribe(ctx context.Context, text string) error {
	if err := b.events.Publish(model.EventUserStartedSpeaking, nil); err != nil {
		return err
	}

	words := strings.Fields(text)
	for i := 1; i < len(words); i++ {
		if err := b.pause(ctx); err != nil {
			return err
		}
		partial := model.TranscriptData{Text: strings.Join(words[:i], " "), UserID: b.cfg.UserID}
		if err := b.events.Publish(model.EventUserTranscription, partial); err != nil {
			return err
		}
	}

	final := model.TranscriptData{
		Text:      text,
		Final:     true,
		Timestamp: model.FormatISO(time.Now()),
		UserID:    b.cfg.UserID,
	}
	if err := b.events.Publish(model.EventUserTranscription, final); err != nil {
		return err
	}
	return b.events.Publish(model.EventUserStoppedSpeaking, nil)
}

func (b *Bot) respond(ctx context.Context, userText string, spoken bool) (*Turn, error) {
	turn := &Turn{ID: b.newID(), User: userText}
	log := b.logger.With(zap.String("turn_id", turn.ID))

	b.history = append(b.history, llm.ChatMessage{Role: "user", Content: userText})

	if err := b.events.Publish(model.EventBotLLMStarted, nil); err != nil {
		return nil, err
	}
	resp, err := b.llm.CompleteStream(ctx, &llm.CompletionRequest{
		Model:    b.cfg.Model,
		System:   b.cfg.SystemPrompt,
		Messages: b.history,
	}, func(token string, _ int) error {
		return b.events.Publish(model.EventBotLLMText, model.TextData{Text: token})
	})
	if err != nil {
		b.history = b.history[:len(b.history)-1]
		_ = b.events.Publish(model.EventBotLLMStopped, nil)
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	if err := b.events.Publish(model.EventBotLLMStopped, nil); err != nil {
		return nil, err
	}
	turn.Reply = resp.Content
	b.history = append(b.history, llm.ChatMessage{Role: "assistant", Content: resp.Content})

	if b.cfg.Conversational && spoken {
		if err := b.speak(ctx, resp.Content); err != nil {
			return nil, err
		}
	}
	if err := b.events.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush realtime events: %w", err)
	}

	seq, err := b.batches.PublishBatch(ctx, b.payload(turn), turn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to publish turn: %w", err)
	}
	turn.Sequence = seq

	log.Info("turn published",
		zap.String("provider", b.llm.Name()),
		zap.Uint64("sequence", seq),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return turn, nil
}

// speak emits the reply as spoken words.
func (b *Bot) speak(ctx context.Context, reply string) error {
	if err := b.events.Publish(model.EventBotStartedSpeaking, nil); err != nil {
		return err
	}
	for _, w := range strings.Fields(reply) {
		if err := b.pause(ctx); err != nil {
			return err
		}
		if err := b.events.Publish(model.EventBotTTSText, model.TextData{Text: w}); err != nil {
			return err
		}
	}
	return b.events.Publish(model.EventBotStoppedSpeaking, nil)
}

func (b *Bot) payload(turn *Turn) *model.IngestPayload {
	user, _ := json.Marshal(turn.User)
	return &model.IngestPayload{
		ConversationID: b.cfg.ConversationID,
		LanguageCode:   b.cfg.LanguageCode,
		UserID:         b.cfg.UserID,
		ParticipantID:  b.cfg.ParticipantID,
		TurnID:         turn.ID,
		Messages: []model.IngestMessage{
			{Role: string(model.RoleUser), Content: user},
			{Role: string(model.RoleAssistant), Content: model.TextContent(turn.Reply)},
		},
	}
}

func (b *Bot) pause(ctx context.Context) error {
	if b.cfg.WordDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(b.cfg.WordDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
