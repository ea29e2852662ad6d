// Package transport carries realtime bot events over core NATS subjects.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/session"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

// DefaultPrefix prefixes realtime subjects.
const DefaultPrefix = "rtvi"

// Subject returns the realtime subject of a conversation.
func Subject(prefix, conversationID string) string {
	return fmt.Sprintf("%s.%s", prefix, conversationID)
}

// Decode parses one realtime frame. Frames with a foreign label are rejected.
func Decode(data []byte) (model.RealtimeEvent, error) {
	var ev model.RealtimeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode realtime frame: %w", err)
	}
	if ev.Label != "" && ev.Label != model.RealtimeLabel {
		return ev, fmt.Errorf("unexpected realtime label %q", ev.Label)
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("realtime frame has no type")
	}
	return ev, nil
}

// Subscriber receives realtime events from NATS.
type Subscriber struct {
	conn   *nats.Conn
	prefix string
	logger *logger.Logger
}

var _ session.Transport = (*Subscriber)(nil)

// NewSubscriber creates a realtime subscriber on conn.
func NewSubscriber(conn *nats.Conn, prefix string, log *logger.Logger) *Subscriber {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Subscriber{conn: conn, prefix: prefix, logger: log.Named("transport")}
}

// Subscribe implements session.Transport.
func (s *Subscriber) Subscribe(conversationID string, handle func(model.RealtimeEvent)) (session.Subscription, error) {
	subject := Subject(s.prefix, conversationID)
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := Decode(msg.Data)
		if err != nil {
			s.logger.Warn("dropping realtime frame",
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}
		handle(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Publisher sends realtime events for one conversation.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher creates a publisher for a conversation.
func NewPublisher(conn *nats.Conn, prefix, conversationID string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{conn: conn, subject: Subject(prefix, conversationID)}
}

// Publish sends one event. A nil data publishes the event without payload.
func (p *Publisher) Publish(typ model.EventType, data any) error {
	ev := model.RealtimeEvent{Label: model.RealtimeLabel, Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", typ, err)
		}
		ev.Data = raw
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime frame: %w", err)
	}
	if err := p.conn.Publish(p.subject, frame); err != nil {
		return fmt.Errorf("failed to publish %s: %w", typ, err)
	}
	return nil
}

// Flush waits until the server has processed every published event.
func (p *Publisher) Flush() error {
	return p.conn.Flush()
}
