// Package service provides the application services behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/reconcile"
	"github.com/capitalize-ai/voice-transcript/internal/session"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

// ErrNoSession is returned when a conversation has no open live session.
var ErrNoSession = errors.New("no live session for conversation")

// ConversationService manages live sessions and renders the merged transcript.
type ConversationService struct {
	sessions *session.Manager
	messages *MessageService
	logger   *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(sessions *session.Manager, messages *MessageService, log *logger.Logger) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		messages: messages,
		logger:   log,
	}
}

// OpenSession starts (or returns) the live session of a conversation for userID.
func (s *ConversationService) OpenSession(ctx context.Context, conversationID, userID, participantID string) (*model.SessionInfo, error) {
	sess, err := s.sessions.Open(conversationID, model.Participants{UserID: userID, ParticipantID: participantID})
	if err != nil {
		return nil, fmt.Errorf("failed to open live session: %w", err)
	}
	return sess.Info(ctx)
}

// CloseSession aborts the live session. The final reconciliation runs before it returns.
func (s *ConversationService) CloseSession(conversationID string) error {
	if err := s.sessions.Close(conversationID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrNoSession
		}
		return err
	}
	s.logger.Info("live session closed", zap.String("conversation_id", conversationID))
	return nil
}

// Session returns the open live session of a conversation.
func (s *ConversationService) Session(conversationID string) (*session.Session, error) {
	sess, ok := s.sessions.Get(conversationID)
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// SubmitText appends typed user text to the live session.
func (s *ConversationService) SubmitText(ctx context.Context, conversationID, text string) (*model.LiveMessage, error) {
	sess, err := s.Session(conversationID)
	if err != nil {
		return nil, err
	}
	msg, err := sess.SubmitText(ctx, text)
	if errors.Is(err, session.ErrClosed) {
		return nil, ErrNoSession
	}
	return msg, err
}

// Transcript merges one page of persisted history with the live messages that follow it.
// Live messages are only appended to the newest page.
func (s *ConversationService) Transcript(ctx context.Context, conversationID, viewerID string, page, limit int) (*model.TranscriptResponse, error) {
	history, err := s.messages.GetMessages(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}

	viewer := model.Participants{UserID: viewerID}
	var live []*model.LiveMessage

	if sess, ok := s.sessions.Get(conversationID); ok && history.Page == 1 {
		snap, err := sess.Snapshot(ctx)
		switch {
		case err == nil:
			live = snap.Messages
			viewer.ParticipantID = sess.Participants().ParticipantID
		case errors.Is(err, session.ErrClosed):
		default:
			return nil, fmt.Errorf("failed to read live messages: %w", err)
		}
	}

	return &model.TranscriptResponse{
		ConversationID: conversationID,
		Entries:        reconcile.Merge(history.Messages, live, viewer),
		PersistedTotal: history.Total,
	}, nil
}
