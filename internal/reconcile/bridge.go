// Package reconcile keeps live messages and persisted history from overlapping.
package reconcile

import (
	"sort"
	"time"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/metrics"
)

// Finalizer drops closed live messages once they are known to be persisted.
type Finalizer interface {
	DropFinalized() bool
}

// Bridge watches the persisted message count of one conversation.
type Bridge struct {
	live      Finalizer
	lastCount int
	observed  bool
}

// NewBridge creates a bridge for the given live message set.
func NewBridge(live Finalizer) *Bridge {
	return &Bridge{live: live}
}

// Observe records the latest persisted count. The first observation is the baseline and
// drops nothing; after that, finalized live messages are dropped whenever the count grows.
// It reports whether the drop ran.
func (b *Bridge) Observe(count int) bool {
	if !b.observed {
		b.observed = true
		b.lastCount = count
		metrics.ReconciliationsTotal.WithLabelValues("baseline").Inc()
		return false
	}
	if count <= b.lastCount {
		metrics.ReconciliationsTotal.WithLabelValues("unchanged").Inc()
		return false
	}
	b.lastCount = count
	b.live.DropFinalized()
	metrics.ReconciliationsTotal.WithLabelValues("dropped").Inc()
	return true
}

// LastCount returns the most recently observed persisted count.
func (b *Bridge) LastCount() int {
	return b.lastCount
}

// Merge renders persisted history in ascending time order followed by the live messages
// in their sequence order. Final live messages created at or before the newest persisted
// row are already part of the history and are left out.
func Merge(persisted []model.PersistedMessage, live []*model.LiveMessage, viewer model.Participants) []model.TranscriptEntry {
	history := make([]model.PersistedMessage, len(persisted))
	copy(history, persisted)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})

	var newest time.Time
	if len(history) > 0 {
		newest = history[len(history)-1].CreatedAt
	}

	entries := make([]model.TranscriptEntry, 0, len(history)+len(live))
	for _, m := range history {
		entries = append(entries, model.TranscriptEntry{
			ID:        m.ID,
			Role:      m.Role,
			Text:      m.Content,
			SenderID:  m.SenderID,
			Me:        isMe(m.SenderID, viewer),
			Final:     true,
			CreatedAt: m.CreatedAt,
		})
	}

	for _, m := range live {
		if m == nil {
			continue
		}
		createdAt, _ := time.Parse(model.ISOMillis, m.CreatedAt)
		if m.Final && !newest.IsZero() && !createdAt.IsZero() && !createdAt.After(newest) {
			continue
		}
		sender := viewer.SenderFor(m.Content.Role)
		entries = append(entries, model.TranscriptEntry{
			ID:        m.ID,
			Role:      m.Content.Role,
			Text:      m.Content.Text,
			SenderID:  sender,
			Me:        isMe(sender, viewer),
			Live:      true,
			Final:     m.Final,
			CreatedAt: createdAt,
		})
	}

	return entries
}

func isMe(senderID string, viewer model.Participants) bool {
	return senderID != "" && senderID == viewer.UserID
}
