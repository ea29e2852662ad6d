package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/middleware"
	"github.com/capitalize-ai/voice-transcript/internal/service"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

// MessageHandler handles history endpoints.
type MessageHandler struct {
	messageService      *service.MessageService
	conversationService *service.ConversationService
	logger              *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(
	msgSvc *service.MessageService,
	convSvc *service.ConversationService,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		messageService:      msgSvc,
		conversationService: convSvc,
		logger:              log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	page, limit := paging(r)

	resp, err := h.messageService.GetMessages(r.Context(), id, page, limit)
	if err != nil {
		h.logger.Error("failed to get messages", zap.String("conversation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get messages")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Transcript handles GET /api/v1/conversations/{id}/transcript
func (h *MessageHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	page, limit := paging(r)

	resp, err := h.conversationService.Transcript(ctx, id, middleware.GetUserID(ctx), page, limit)
	if err != nil {
		h.logger.Error("failed to build transcript", zap.String("conversation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build transcript")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
