// Package live coalesces streamed transcript fragments into an ordered list of live messages.
package live

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/normalize"
)

// Aggregator holds the live (not yet persisted) messages of one conversation session.
//
// It is not safe for concurrent use; the owning session serializes every call.
// Stored *model.LiveMessage values are never modified after they are published, so a
// changed message always has a new pointer and an unchanged one keeps its identity.
type Aggregator struct {
	conversationID string
	messages       []*model.LiveMessage
	version        uint64

	newID func() string
	now   func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithIDGenerator overrides how local message ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(a *Aggregator) { a.newID = fn }
}

// WithClock overrides the clock used for fragments without timestamps.
func WithClock(fn func() time.Time) Option {
	return func(a *Aggregator) { a.now = fn }
}

// NewAggregator creates an empty aggregator for a conversation.
func NewAggregator(conversationID string, opts ...Option) *Aggregator {
	a := &Aggregator{
		conversationID: conversationID,
		newID:          uuid.NewString,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Messages returns the current sequence. The slice must not be modified.
func (a *Aggregator) Messages() []*model.LiveMessage {
	return a.messages[:len(a.messages):len(a.messages)]
}

// Version increases on every change of the sequence.
func (a *Aggregator) Version() uint64 {
	return a.version
}

// Ingest merges one fragment into the sequence and reports whether anything changed.
func (a *Aggregator) Ingest(f model.Fragment) bool {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = a.now()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}

	key := f.TurnKey()
	updatedAt := model.FormatISO(f.UpdatedAt)

	idx := a.find(f.Role, key)
	if idx < 0 || a.messages[idx].Final {
		a.messages = append(a.messages, &model.LiveMessage{
			ID:             a.newID(),
			ConversationID: a.conversationID,
			Content: model.Content{
				Role: f.Role,
				Text: normalize.Text(f.Text),
			},
			Final:     f.Final,
			TurnKey:   key,
			CreatedAt: model.FormatISO(f.CreatedAt),
			UpdatedAt: updatedAt,
		})
		a.version++
		return true
	}

	match := a.messages[idx]
	prev := normalize.MessageText(match)

	candidate := prev + f.Text
	if f.Replace {
		candidate = f.Text
	}
	candidate = normalize.Text(candidate)

	if candidate == prev && f.Final == match.Final {
		return false
	}

	updated := *match
	updated.Content = model.Content{Role: f.Role, Text: candidate}
	updated.Final = f.Final
	updated.UpdatedAt = updatedAt

	next := make([]*model.LiveMessage, len(a.messages))
	copy(next, a.messages)
	next[idx] = &updated

	a.messages = dropStaleEmpty(next)
	a.version++
	return true
}

// AppendUserText adds typed user input as a closed user message.
func (a *Aggregator) AppendUserText(text string, at time.Time) *model.LiveMessage {
	if at.IsZero() {
		at = a.now()
	}
	iso := model.FormatISO(at)
	msg := &model.LiveMessage{
		ID:             a.newID(),
		ConversationID: a.conversationID,
		Content:        model.Content{Role: model.RoleUser, Text: normalize.Text(text)},
		Final:          true,
		TurnKey:        iso,
		CreatedAt:      iso,
		UpdatedAt:      iso,
	}
	a.messages = append(a.messages, msg)
	a.version++
	return msg
}

// CleanupEmptyUserMessages removes user messages that never received any text.
func (a *Aggregator) CleanupEmptyUserMessages() bool {
	return a.filter(func(m *model.LiveMessage) bool {
		return m.Content.Role != model.RoleUser || normalize.MessageText(m) != ""
	})
}

// DropFinalized removes every closed message, assuming the durable store now has them.
func (a *Aggregator) DropFinalized() bool {
	return a.filter(func(m *model.LiveMessage) bool {
		return !m.Final
	})
}

// find returns the index of the most recent message of role in turn key, or -1.
func (a *Aggregator) find(role model.Role, key string) int {
	for i := len(a.messages) - 1; i >= 0; i-- {
		m := a.messages[i]
		if m.Content.Role == role && m.TurnKey == key {
			return i
		}
	}
	return -1
}

func (a *Aggregator) filter(keep func(*model.LiveMessage) bool) bool {
	next := make([]*model.LiveMessage, 0, len(a.messages))
	for _, m := range a.messages {
		if keep(m) {
			next = append(next, m)
		}
	}
	if len(next) == len(a.messages) {
		return false
	}
	a.messages = next
	a.version++
	return true
}

// dropStaleEmpty removes empty messages that are not last in the sequence.
func dropStaleEmpty(msgs []*model.LiveMessage) []*model.LiveMessage {
	out := msgs[:0]
	last := len(msgs) - 1
	for i, m := range msgs {
		if i < last && strings.TrimSpace(normalize.MessageText(m)) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
