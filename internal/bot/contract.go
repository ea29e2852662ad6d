//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package bot

import (
	"context"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

// EventPublisher sends realtime events for one conversation.
type EventPublisher interface {
	Publish(typ model.EventType, data any) error
	Flush() error
}

// BatchPublisher hands finalized turns to the broker.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, payload *model.IngestPayload, msgID string) (uint64, error)
}
