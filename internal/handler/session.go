package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/middleware"
	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/service"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

// SessionHandler handles live session endpoints.
type SessionHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *service.ConversationService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

// Open handles POST /api/v1/conversations/{id}/session
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.OpenSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := middleware.ValidateParticipantID(req.ParticipantID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.service.OpenSession(ctx, id, middleware.GetUserID(ctx), req.ParticipantID)
	if err != nil {
		h.logger.Error("failed to open live session", zap.String("conversation_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to open live session")
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

// Close handles DELETE /api/v1/conversations/{id}/session
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.service.CloseSession(id); err != nil {
		if errors.Is(err, service.ErrNoSession) {
			writeError(w, http.StatusNotFound, "live session not found")
			return
		}
		h.logger.Error("failed to close live session", zap.String("conversation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to close live session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitText handles POST /api/v1/conversations/{id}/text
func (h *SessionHandler) SubmitText(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.UserTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateUserText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.SubmitText(r.Context(), id, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			writeError(w, http.StatusNotFound, "live session not found")
			return
		}
		h.logger.Error("failed to submit text", zap.String("conversation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit text")
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
