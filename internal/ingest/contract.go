//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package ingest

import (
	"context"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

// Store persists message rows.
type Store interface {
	InsertMessage(ctx context.Context, msg *model.PersistedMessage) (bool, error)
}

// Notifier announces that a conversation gained persisted rows.
type Notifier interface {
	NotifyPersisted(ctx context.Context, conversationID string) error
}
