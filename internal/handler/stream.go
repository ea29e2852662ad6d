package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/service"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/metrics"
)

const defaultHeartbeat = 30 * time.Second

// StreamHandler serves live session updates over SSE.
type StreamHandler struct {
	conversationService *service.ConversationService
	heartbeat           time.Duration
	logger              *logger.Logger
}

// NewStreamHandler creates a new stream handler. A non-positive heartbeat uses the default.
func NewStreamHandler(convSvc *service.ConversationService, heartbeat time.Duration, log *logger.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{
		conversationService: convSvc,
		heartbeat:           heartbeat,
		logger:              log,
	}
}

// Live handles GET /api/v1/conversations/{id}/live
//
// Events: "connected" once, "live" with every new snapshot, "audio" for bot assets,
// "heartbeat" on idle, and "end" when the session finishes.
func (h *StreamHandler) Live(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	sess, err := h.conversationService.Session(id)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			writeError(w, http.StatusNotFound, "live session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open live stream")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	updates, cancel := sess.Subscribe()
	defer cancel()

	log := h.logger.ForConversation(id)
	if err := sendSSEEvent(w, flusher, "connected", map[string]string{"conversation_id": id}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("SSE client disconnected")
			return

		case u, ok := <-updates:
			if !ok {
				sendSSEEvent(w, flusher, "end", map[string]string{"conversation_id": id})
				return
			}
			var err error
			switch {
			case u.Snapshot != nil:
				err = sendSSEEvent(w, flusher, "live", u.Snapshot)
			case u.Audio != nil:
				err = sendSSEEvent(w, flusher, "audio", u.Audio)
			}
			if err != nil {
				log.Warn("failed to write SSE event", zap.Error(err))
				return
			}

		case <-heartbeat.C:
			if err := sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now().UTC(),
			}); err != nil {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
