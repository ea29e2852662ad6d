package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/metrics"
	"github.com/capitalize-ai/voice-transcript/pkg/tracing"
)

// ConsumerConfig names the durable consumer.
type ConsumerConfig struct {
	Stream     string
	Subject    string
	Durable    string
	AckWait    time.Duration
	MaxDeliver int
}

// Consumer reads batches from a JetStream durable consumer.
type Consumer struct {
	js      jetstream.JetStream
	cfg     ConsumerConfig
	handler *Handler
	logger  *logger.Logger
}

// NewConsumer creates a consumer feeding handler.
func NewConsumer(js jetstream.JetStream, cfg ConsumerConfig, handler *Handler, log *logger.Logger) *Consumer {
	if cfg.Durable == "" {
		cfg.Durable = "ingest"
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
	}
	if cfg.MaxDeliver == 0 {
		cfg.MaxDeliver = 5
	}
	return &Consumer{js: js, cfg: cfg, handler: handler, logger: log.Named("ingest")}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       c.cfg.Durable,
		FilterSubject: c.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       c.cfg.AckWait,
		MaxDeliver:    c.cfg.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		c.handle(ctx, msg)
	}, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		c.logger.Warn("consume error", zap.Error(err))
	}))
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	c.logger.Info("ingestion consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("subject", c.cfg.Subject),
		zap.String("durable", c.cfg.Durable),
	)

	<-ctx.Done()
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg jetstream.Msg) {
	start := time.Now()
	defer func() {
		metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, span := tracing.Tracer("ingest").Start(ctx, "ingest.batch")
	defer span.End()

	payload, err := Decode(msg.Data())
	if err != nil {
		metrics.IngestBatchesTotal.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("terminating undecodable batch", zap.String("subject", msg.Subject()), zap.Error(err))
		if err := msg.Term(); err != nil {
			c.logger.Warn("failed to terminate message", zap.Error(err))
		}
		return
	}

	source := payload.TurnID
	receivedAt := time.Now()
	if meta, err := msg.Metadata(); err == nil {
		if source == "" {
			source = strconv.FormatUint(meta.Sequence.Stream, 10)
		}
		receivedAt = meta.Timestamp
	}

	span.SetAttributes(
		attribute.String("conversation_id", payload.ConversationID),
		attribute.Int("messages", len(payload.Messages)),
	)

	res := c.handler.Process(ctx, payload, source, receivedAt)

	status := "ok"
	if res.Failed > 0 {
		status = "partial"
		span.SetStatus(codes.Error, fmt.Sprintf("%d lines failed", res.Failed))
	}
	metrics.IngestBatchesTotal.WithLabelValues(status).Inc()

	if err := msg.Ack(); err != nil {
		c.logger.Warn("failed to ack batch", zap.Error(err))
	}
}
