//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package session

import (
	"context"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

// HistoryReader reports how many messages of a conversation are persisted.
type HistoryReader interface {
	CountMessages(ctx context.Context, conversationID string) (int, error)
}

// Transport delivers realtime events of one conversation.
type Transport interface {
	Subscribe(conversationID string, handle func(model.RealtimeEvent)) (Subscription, error)
}

// Subscription is an open transport subscription.
type Subscription interface {
	Unsubscribe() error
}
