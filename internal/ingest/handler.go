// Package ingest persists finalized conversation turns delivered by the message broker.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/metrics"
)

// ErrInvalidPayload marks a broker payload that can never be processed.
var ErrInvalidPayload = errors.New("invalid ingest payload")

// Result summarizes one processed batch.
type Result struct {
	Inserted   int
	Duplicates int
	Failed     int
}

// Decode parses a batch, accepting both the bare payload and the {pattern, data} envelope.
func Decode(data []byte) (*model.IngestPayload, error) {
	var envelope struct {
		Pattern string          `json:"pattern"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	body := data
	if len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		body = envelope.Data
	}

	var payload model.IngestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.ConversationID == "" {
		return nil, fmt.Errorf("%w: missing conversation_id", ErrInvalidPayload)
	}
	return &payload, nil
}

// IdempotencyKey derives a stable key for the index-th line of a batch. source identifies
// the batch: the turn id when the bot sends one, otherwise the broker sequence.
func IdempotencyKey(conversationID, source string, index int, role, content string) string {
	h := sha256.New()
	for _, part := range []string{conversationID, source, strconv.Itoa(index), role, content} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Handler turns batches into persisted rows.
type Handler struct {
	store    Store
	notifier Notifier
	logger   *logger.Logger
	newID    func() string
}

// NewHandler creates a batch handler. notifier may be nil.
func NewHandler(store Store, notifier Notifier, log *logger.Logger) *Handler {
	return &Handler{
		store:    store,
		notifier: notifier,
		logger:   log.Named("ingest"),
		newID:    uuid.NewString,
	}
}

// Process persists every line of payload. A failing line is logged and skipped; it never
// stops the rest of the batch. receivedAt orders the rows of the batch.
func (h *Handler) Process(ctx context.Context, payload *model.IngestPayload, source string, receivedAt time.Time) Result {
	var res Result
	log := h.logger.ForConversation(payload.ConversationID)

	participants := model.Participants{UserID: payload.UserID, ParticipantID: payload.ParticipantID}

	for i, line := range payload.Messages {
		text, err := line.Text()
		if err != nil {
			res.Failed++
			metrics.RecordIngested(line.Role, "invalid")
			log.Warn("skipping line with unreadable content", zap.Int("index", i), zap.Error(err))
			continue
		}

		msg := &model.PersistedMessage{
			ID:             h.newID(),
			ConversationID: payload.ConversationID,
			Role:           model.Role(line.Role),
			Content:        text,
			LanguageCode:   payload.LanguageCode,
			SenderID:       participants.SenderFor(model.Role(line.Role)),
			IdempotencyKey: IdempotencyKey(payload.ConversationID, source, i, line.Role, text),
			CreatedAt:      receivedAt.Add(time.Duration(i) * time.Microsecond).UTC(),
		}

		inserted, err := h.store.InsertMessage(ctx, msg)
		switch {
		case err != nil:
			res.Failed++
			metrics.RecordIngested(line.Role, "error")
			log.Error("failed to persist line", zap.Int("index", i), zap.String("role", line.Role), zap.Error(err))
		case inserted:
			res.Inserted++
			metrics.RecordIngested(line.Role, "inserted")
		default:
			res.Duplicates++
			metrics.RecordIngested(line.Role, "duplicate")
		}
	}

	if res.Inserted > 0 && h.notifier != nil {
		if err := h.notifier.NotifyPersisted(ctx, payload.ConversationID); err != nil {
			log.Warn("failed to publish refresh signal", zap.Error(err))
		}
	}

	log.Debug("batch processed",
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
	)
	return res
}
