//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package dispatcher

import (
	"time"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

// Sink receives the fragments produced from realtime events.
type Sink interface {
	Ingest(f model.Fragment) bool
	CleanupEmptyUserMessages() bool
	AppendUserText(text string, at time.Time) *model.LiveMessage
}

// Refresher asks for persisted history to be re-fetched and reconciled.
type Refresher interface {
	RequestRefresh()
}

// AssetHandler receives downloadable assets announced by the bot.
type AssetHandler interface {
	HandleAsset(fileURL string)
}

// Scheduler runs fn once after d unless the returned timer is stopped first.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}
