//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package service

import (
	"context"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

// MessageRepository reads persisted messages.
type MessageRepository interface {
	ListMessages(ctx context.Context, conversationID string, page, limit int) ([]model.PersistedMessage, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)
}
