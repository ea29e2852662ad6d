package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

// ErrNotFound is returned when no live session exists for a conversation.
var ErrNotFound = errors.New("live session not found")

type entry struct {
	session *Session
	sub     Subscription
}

// Manager keeps the open live sessions keyed by conversation id.
type Manager struct {
	ctx       context.Context
	transport Transport
	history   HistoryReader
	cfg       Config
	logger    *logger.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a session manager. Sessions live until closed or until ctx is done.
func NewManager(ctx context.Context, transport Transport, history HistoryReader, cfg Config, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Global()
	}
	return &Manager{
		ctx:       ctx,
		transport: transport,
		history:   history,
		cfg:       cfg,
		logger:    log.Named("session"),
		sessions:  make(map[string]*entry),
	}
}

// Open returns the live session of a conversation, starting one if needed.
func (m *Manager) Open(conversationID string, participants model.Participants) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[conversationID]; ok {
		select {
		case <-e.session.Done():
			m.forget(conversationID, e)
		default:
			return e.session, nil
		}
	}

	s := Open(m.ctx, conversationID, participants, m.history, m.cfg, m.logger)
	sub, err := m.transport.Subscribe(conversationID, s.Deliver)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to subscribe to realtime transport: %w", err)
	}

	e := &entry{session: s, sub: sub}
	m.sessions[conversationID] = e
	go m.reap(conversationID, e)

	m.logger.Info("live session opened",
		zap.String("conversation_id", conversationID),
		zap.String("participant_id", participants.ParticipantID),
	)
	return s, nil
}

// Get returns the open session of a conversation.
func (m *Manager) Get(conversationID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[conversationID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Close aborts the session of a conversation and waits for its final refresh.
func (m *Manager) Close(conversationID string) error {
	s, ok := m.Get(conversationID)
	if !ok {
		return ErrNotFound
	}
	s.Close()
	m.remove(conversationID, s)
	return nil
}

// Refresh routes a persisted-history change signal to the conversation's session, if any.
func (m *Manager) Refresh(conversationID string) {
	if s, ok := m.Get(conversationID); ok {
		s.RequestRefresh()
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		sessions = append(sessions, e.session)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
			m.remove(s.ConversationID(), s)
		}(s)
	}
	wg.Wait()
}

// reap forgets a session once its loop ends on its own, for example after a disconnect.
func (m *Manager) reap(conversationID string, e *entry) {
	<-e.session.Done()
	m.remove(conversationID, e.session)
}

func (m *Manager) remove(conversationID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[conversationID]; ok && e.session == s {
		m.forget(conversationID, e)
	}
}

// forget drops an entry and its transport subscription. The caller holds m.mu.
func (m *Manager) forget(conversationID string, e *entry) {
	delete(m.sessions, conversationID)
	if err := e.sub.Unsubscribe(); err != nil {
		m.logger.Warn("failed to unsubscribe realtime transport",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}
