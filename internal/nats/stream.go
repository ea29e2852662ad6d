package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

const (
	// DefaultStreamName is the stream finalized conversation turns are published to.
	DefaultStreamName = "PIPECAT"

	// DefaultSubjectPrefix prefixes broker and signal subjects.
	DefaultSubjectPrefix = "pipecat"

	// MessagePattern is the message pattern the ingestion consumer accepts.
	MessagePattern = "message"
)

// StreamConfig names the ingestion stream and its subjects.
type StreamConfig struct {
	Name          string
	SubjectPrefix string
	MaxAge        time.Duration
	Replicas      int
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.Name == "" {
		c.Name = DefaultStreamName
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 7 * 24 * time.Hour
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	return c
}

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
	cfg    StreamConfig
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client, cfg StreamConfig) *StreamManager {
	return &StreamManager{client: client, cfg: cfg.withDefaults()}
}

// Config returns the effective stream configuration.
func (m *StreamManager) Config() StreamConfig {
	return m.cfg
}

// EnsureStream creates the ingestion stream if it does not exist yet.
func (m *StreamManager) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	js := m.client.JetStream()

	stream, err := js.Stream(ctx, m.cfg.Name)
	if err == nil {
		return stream, nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return nil, fmt.Errorf("failed to look up stream: %w", err)
	}

	stream, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        m.cfg.Name,
		Subjects:    []string{MessageSubject(m.cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      m.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    m.cfg.Replicas,
		Duplicates:  2 * time.Minute,
		Description: "Finalized conversation turns awaiting persistence",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return stream, nil
}

// MessageSubject returns the subject finalized turn batches are published on.
func MessageSubject(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, MessagePattern)
}

// RefreshSubject returns the subject announcing new persisted rows of a conversation.
func RefreshSubject(prefix, conversationID string) string {
	return fmt.Sprintf("%s.refresh.%s", prefix, conversationID)
}

// RefreshWildcard matches the refresh subjects of every conversation.
func RefreshWildcard(prefix string) string {
	return fmt.Sprintf("%s.refresh.*", prefix)
}

// PublishBatch publishes a finalized turn batch wrapped in the bot envelope. A non-empty
// msgID lets the stream drop duplicate publishes.
func (m *StreamManager) PublishBatch(ctx context.Context, payload *model.IngestPayload, msgID string) (uint64, error) {
	data, err := json.Marshal(model.IngestEnvelope{Pattern: MessagePattern, Data: payload})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal batch: %w", err)
	}

	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(m.cfg.SubjectPrefix), data, opts...)
	if err != nil {
		return 0, fmt.Errorf("failed to publish batch: %w", err)
	}

	return ack.Sequence, nil
}

// Notifier publishes refresh signals over core NATS.
type Notifier struct {
	conn   *nats.Conn
	prefix string
}

// NewNotifier creates a refresh notifier.
func NewNotifier(client *Client, prefix string) *Notifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Notifier{conn: client.Conn(), prefix: prefix}
}

// NotifyPersisted announces that rows were added to a conversation.
func (n *Notifier) NotifyPersisted(ctx context.Context, conversationID string) error {
	if err := n.conn.Publish(RefreshSubject(n.prefix, conversationID), nil); err != nil {
		return fmt.Errorf("failed to publish refresh signal: %w", err)
	}
	return nil
}

// SubscribeRefresh calls fn with the conversation id of every refresh signal.
func SubscribeRefresh(client *Client, prefix string, fn func(conversationID string)) (*nats.Subscription, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	head := len(RefreshSubject(prefix, ""))
	sub, err := client.Conn().Subscribe(RefreshWildcard(prefix), func(msg *nats.Msg) {
		if len(msg.Subject) > head {
			fn(msg.Subject[head:])
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to refresh signals: %w", err)
	}
	return sub, nil
}
