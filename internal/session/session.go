// Package session owns the live state of one conversation and serializes every change to it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/dispatcher"
	"github.com/capitalize-ai/voice-transcript/internal/live"
	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/reconcile"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/metrics"
)

// ErrClosed is returned by operations on a session that has shut down.
var ErrClosed = errors.New("session closed")

const (
	taskBuffer       = 64
	subscriberBuffer = 8
	refreshTimeout   = 5 * time.Second
)

// Update is one item pushed to a subscriber: either a new live snapshot or an audio asset.
type Update struct {
	Snapshot *model.LiveSnapshot
	Audio    *model.AudioEvent
}

type subscriber struct {
	ch chan Update
}

// offer never blocks the loop; when the buffer is full the oldest pending update is dropped.
func (s *subscriber) offer(u Update) {
	for {
		select {
		case s.ch <- u:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Session runs one goroutine that processes transport events, timer callbacks and refresh
// requests in arrival order.
type Session struct {
	conversationID string
	participants   model.Participants
	openedAt       time.Time

	agg     *live.Aggregator
	disp    *dispatcher.Dispatcher
	bridge  *reconcile.Bridge
	history HistoryReader
	logger  *logger.Logger

	tasks     chan func()
	refreshCh chan struct{}
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	subs        map[int]*subscriber
	nextSub     int
	lastVersion uint64
}

// Config holds per-session settings.
type Config struct {
	Dispatcher dispatcher.Config
}

// Open starts a session loop. The loop ends when Close is called, when ctx is cancelled, or
// when the transport reports a disconnect.
func Open(ctx context.Context, conversationID string, participants model.Participants, history HistoryReader, cfg Config, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Global()
	}

	s := &Session{
		conversationID: conversationID,
		participants:   participants,
		openedAt:       time.Now().UTC(),
		history:        history,
		logger:         log.ForConversation(conversationID),
		tasks:          make(chan func(), taskBuffer),
		refreshCh:      make(chan struct{}, 1),
		closing:        make(chan struct{}),
		done:           make(chan struct{}),
		subs:           make(map[int]*subscriber),
	}
	s.agg = live.NewAggregator(conversationID)
	s.bridge = reconcile.NewBridge(s.agg)
	s.disp = dispatcher.New(s.agg, loopScheduler{s: s}, cfg.Dispatcher,
		dispatcher.WithRefresher(s),
		dispatcher.WithAssetHandler(assetHandler{s: s}),
		dispatcher.WithLogger(s.logger),
	)

	metrics.LiveSessionsActive.Inc()
	go s.run(ctx)

	return s
}

// ConversationID returns the conversation this session belongs to.
func (s *Session) ConversationID() string {
	return s.conversationID
}

// Participants returns who the session attributes messages to.
func (s *Session) Participants() model.Participants {
	return s.participants
}

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Deliver queues a realtime event. Events arriving after the session ended are dropped.
func (s *Session) Deliver(ev model.RealtimeEvent) {
	s.post(func() {
		if err := s.disp.Handle(ev); err != nil {
			s.logger.Warn("dropping realtime event",
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
		}
	})
}

// RequestRefresh asks the loop to re-read the persisted count and reconcile. Requests that
// arrive while one is pending are coalesced.
func (s *Session) RequestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// SubmitText appends typed user text as a final live message.
func (s *Session) SubmitText(ctx context.Context, text string) (*model.LiveMessage, error) {
	var msg *model.LiveMessage
	if err := s.do(ctx, func() { msg = s.disp.SubmitUserText(text) }); err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrClosed
	}
	return msg, nil
}

// Snapshot returns the current live sequence.
func (s *Session) Snapshot(ctx context.Context) (model.LiveSnapshot, error) {
	var snap model.LiveSnapshot
	err := s.do(ctx, func() { snap = s.snapshot() })
	return snap, err
}

// Info describes the session.
func (s *Session) Info(ctx context.Context) (*model.SessionInfo, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &model.SessionInfo{
		ConversationID: s.conversationID,
		Participants:   s.participants,
		OpenedAt:       s.openedAt,
		LiveMessages:   len(snap.Messages),
	}, nil
}

// Subscribe registers for updates. The current snapshot is delivered first. The channel is
// closed when the session ends or cancel is called.
func (s *Session) Subscribe() (<-chan Update, func()) {
	sub := &subscriber{ch: make(chan Update, subscriberBuffer)}

	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	default:
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	s.post(func() {
		snap := s.snapshot()
		s.mu.Lock()
		if _, ok := s.subs[id]; ok {
			sub.offer(Update{Snapshot: &snap})
		}
		s.mu.Unlock()
	})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub.ch)
			}
			s.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Close stops fragment emission, runs one final reconciliation and waits for the loop to
// exit. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	defer s.finish()

	// The count at open is the baseline later refreshes compare against.
	s.refresh()

	for {
		select {
		case fn := <-s.tasks:
			fn()
		case <-s.refreshCh:
			s.refresh()
		case <-s.closing:
			s.shutdown()
			return
		case <-ctx.Done():
			s.shutdown()
			return
		}
		s.publish()

		if s.disp.Stopped() {
			s.logger.Info("transport disconnected, ending session")
			s.shutdown()
			return
		}
	}
}

// shutdown stops the dispatcher and runs the refresh it requested.
func (s *Session) shutdown() {
	s.disp.Stop()
	select {
	case <-s.refreshCh:
		s.refresh()
	default:
	}
	s.publish()
}

func (s *Session) finish() {
	s.mu.Lock()
	close(s.done)
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	metrics.LiveSessionsActive.Dec()
	s.logger.Info("live session ended")
}

func (s *Session) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	count, err := s.history.CountMessages(ctx, s.conversationID)
	if err != nil {
		s.logger.Error("failed to read persisted message count", zap.Error(err))
		return
	}
	if s.bridge.Observe(count) {
		s.logger.Debug("reconciled live messages", zap.Int("persisted", count))
	}
}

// publish pushes a snapshot to subscribers when the sequence changed since the last push.
func (s *Session) publish() {
	v := s.agg.Version()
	if v == s.lastVersion {
		return
	}
	s.lastVersion = v
	snap := s.snapshot()

	s.mu.Lock()
	for _, sub := range s.subs {
		sub.offer(Update{Snapshot: &snap})
	}
	s.mu.Unlock()
}

func (s *Session) snapshot() model.LiveSnapshot {
	msgs := s.agg.Messages()
	out := make([]*model.LiveMessage, len(msgs))
	copy(out, msgs)
	return model.LiveSnapshot{
		ConversationID: s.conversationID,
		Messages:       out,
		Version:        s.agg.Version(),
	}
}

func (s *Session) broadcastAudio(fileURL string) {
	ev := &model.AudioEvent{ConversationID: s.conversationID, FileURL: fileURL}
	s.mu.Lock()
	for _, sub := range s.subs {
		sub.offer(Update{Audio: ev})
	}
	s.mu.Unlock()
}

func (s *Session) post(fn func()) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.tasks <- fn:
	case <-s.done:
	}
}

// do runs fn on the loop and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	task := func() {
		fn()
		close(ran)
	}

	select {
	case s.tasks <- task:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loopScheduler runs timer callbacks on the session loop.
type loopScheduler struct {
	s *Session
}

func (l loopScheduler) AfterFunc(d time.Duration, fn func()) dispatcher.Timer {
	return time.AfterFunc(d, func() { l.s.post(fn) })
}

type assetHandler struct {
	s *Session
}

func (a assetHandler) HandleAsset(fileURL string) {
	a.s.broadcastAudio(fileURL)
}
