package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/tracing"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// MessageService serves persisted conversation history.
type MessageService struct {
	repo   MessageRepository
	logger *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(repo MessageRepository, log *logger.Logger) *MessageService {
	return &MessageService{
		repo:   repo,
		logger: log,
	}
}

// GetMessages returns one page of history. The store pages newest first; each page is
// returned in ascending time order for display.
func (s *MessageService) GetMessages(ctx context.Context, conversationID string, page, limit int) (*model.ListMessagesResponse, error) {
	ctx, span := tracing.Tracer("history").Start(ctx, "history.list")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	span.SetAttributes(
		attribute.String("conversation_id", conversationID),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	)

	total, err := s.repo.CountMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	s.logger.Debug("history page loaded",
		zap.String("conversation_id", conversationID),
		zap.Int("page", page),
		zap.Int("returned", len(messages)),
		zap.Int("total", total),
	)

	return &model.ListMessagesResponse{
		Messages: messages,
		Total:    total,
		Page:     page,
		Limit:    limit,
		HasMore:  page*limit < total,
	}, nil
}

// CountMessages returns the persisted message count of a conversation.
func (s *MessageService) CountMessages(ctx context.Context, conversationID string) (int, error) {
	ctx, span := tracing.Tracer("history").Start(ctx, "history.count")
	defer span.End()

	return s.repo.CountMessages(ctx, conversationID)
}
