// Package dispatcher turns realtime transport events into live message fragments.
package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/metrics"
)

// Mode selects which bot events carry the assistant text.
type Mode string

const (
	// ModeInformational renders assistant text from LLM output events.
	ModeInformational Mode = "informational"
	// ModeConversational renders assistant text from speech (TTS) events; LLM output is only
	// rendered when it answers typed user text.
	ModeConversational Mode = "conversational"
)

const (
	// DefaultCleanupDelay is how long after user speech stops empty user messages are removed.
	DefaultCleanupDelay = 5 * time.Second
	// DefaultRefreshDelay is how long after an assistant turn ends a history refresh is requested.
	DefaultRefreshDelay = 2 * time.Second
)

// ErrInvalidFragment is returned when a fragment without a known role would be emitted.
var ErrInvalidFragment = errors.New("fragment has no valid role")

// Config holds dispatcher timings and mode.
type Config struct {
	Mode         Mode
	CleanupDelay time.Duration
	RefreshDelay time.Duration
}

type turn struct {
	id        string
	startedAt time.Time
}

// Dispatcher maps realtime events onto a Sink. It keeps one open turn per role so every
// delta of a turn shares the turn's start time and id.
//
// Dispatcher is not safe for concurrent use: events and timer callbacks must be delivered
// from a single goroutine.
type Dispatcher struct {
	sink      Sink
	scheduler Scheduler
	refresher Refresher
	assets    AssetHandler
	cfg       Config
	logger    *logger.Logger

	now       func() time.Time
	newTurnID func() string

	assistant    *turn
	user         *turn
	textResponse bool

	// Generations invalidate callbacks whose timer fired before it could be stopped.
	cleanupTimer Timer
	cleanupGen   uint64
	refreshTimer Timer
	refreshGen   uint64
	stopped      bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRefresher sets where refresh requests go.
func WithRefresher(r Refresher) Option {
	return func(d *Dispatcher) { d.refresher = r }
}

// WithAssetHandler sets who receives server asset messages.
func WithAssetHandler(h AssetHandler) Option {
	return func(d *Dispatcher) { d.assets = h }
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithTurnIDs overrides turn id generation.
func WithTurnIDs(fn func() string) Option {
	return func(d *Dispatcher) { d.newTurnID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a dispatcher feeding sink.
func New(sink Sink, scheduler Scheduler, cfg Config, opts ...Option) *Dispatcher {
	if cfg.Mode == "" {
		cfg.Mode = ModeInformational
	}
	if cfg.CleanupDelay <= 0 {
		cfg.CleanupDelay = DefaultCleanupDelay
	}
	if cfg.RefreshDelay <= 0 {
		cfg.RefreshDelay = DefaultRefreshDelay
	}

	d := &Dispatcher{
		sink:      sink,
		scheduler: scheduler,
		refresher: nopRefresher{},
		assets:    nopAssets{},
		cfg:       cfg,
		logger:    logger.Global(),
		now:       time.Now,
		newTurnID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stopped reports whether the dispatcher no longer emits fragments.
func (d *Dispatcher) Stopped() bool {
	return d.stopped
}

// Handle processes one realtime event to completion.
func (d *Dispatcher) Handle(ev model.RealtimeEvent) error {
	if d.stopped {
		return nil
	}
	metrics.LiveEventsTotal.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case model.EventBotLLMStarted:
		d.assistant = d.openTurn()
		return d.emit(d.fragment(model.RoleAssistant, d.assistant, "", false, false))

	case model.EventBotLLMText:
		if d.cfg.Mode != ModeInformational && !d.textResponse {
			return nil
		}
		var data model.TextData
		if err := decode(ev, &data); err != nil {
			return err
		}
		if d.assistant == nil {
			return nil
		}
		return d.emit(d.fragment(model.RoleAssistant, d.assistant, data.Text, false, false))

	case model.EventBotLLMStopped:
		textResponse := d.textResponse
		d.textResponse = false
		if d.cfg.Mode != ModeInformational && !textResponse {
			return nil
		}
		if d.assistant == nil {
			return nil
		}
		t := d.assistant
		d.assistant = nil
		if err := d.emit(d.fragment(model.RoleAssistant, t, "", true, false)); err != nil {
			return err
		}
		d.armRefresh()
		return nil

	case model.EventBotStartedSpeaking:
		if d.cfg.Mode != ModeConversational {
			return nil
		}
		if d.assistant == nil {
			d.assistant = d.openTurn()
		}
		return d.emit(d.fragment(model.RoleAssistant, d.assistant, "", false, false))

	case model.EventBotTTSText:
		if d.cfg.Mode != ModeConversational {
			return nil
		}
		var data model.TextData
		if err := decode(ev, &data); err != nil {
			return err
		}
		if d.assistant == nil {
			return nil
		}
		return d.emit(d.fragment(model.RoleAssistant, d.assistant, " "+data.Text, false, false))

	case model.EventBotStoppedSpeaking:
		if d.cfg.Mode != ModeConversational || d.assistant == nil {
			return nil
		}
		t := d.assistant
		d.assistant = nil
		return d.emit(d.fragment(model.RoleAssistant, t, "", true, false))

	case model.EventUserStartedSpeaking:
		d.cancelCleanup()
		if d.user == nil {
			d.user = d.openTurn()
		}
		return d.emit(d.fragment(model.RoleUser, d.user, "", false, false))

	case model.EventUserStoppedSpeaking:
		d.armCleanup()
		return nil

	case model.EventUserTranscription:
		var data model.TranscriptData
		if err := decode(ev, &data); err != nil {
			return err
		}
		if d.user == nil {
			d.user = d.openTurn()
		}
		t := d.user
		if data.Final {
			d.user = nil
		}
		return d.emit(d.fragment(model.RoleUser, t, data.Text, data.Final, true))

	case model.EventServerMessage:
		var data model.ServerMessageData
		if err := decode(ev, &data); err != nil {
			return err
		}
		if data.FileURL != "" {
			d.assets.HandleAsset(data.FileURL)
		}
		return nil

	case model.EventDisconnected:
		d.Stop()
		return nil
	}

	return nil
}

// SubmitUserText records typed user input and marks the next assistant LLM answer as a
// text response.
func (d *Dispatcher) SubmitUserText(text string) *model.LiveMessage {
	if d.stopped {
		return nil
	}
	d.textResponse = true
	return d.sink.AppendUserText(text, d.now())
}

// Stop ends the session. Pending timers are cancelled and exactly one final refresh is
// requested; later events are ignored. Stop is idempotent.
func (d *Dispatcher) Stop() {
	if d.stopped {
		return
	}
	d.stopped = true
	d.cancelCleanup()
	d.cancelRefresh()
	d.assistant = nil
	d.user = nil
	d.refresher.RequestRefresh()
}

func (d *Dispatcher) openTurn() *turn {
	return &turn{id: d.newTurnID(), startedAt: d.now()}
}

func (d *Dispatcher) fragment(role model.Role, t *turn, text string, final, replace bool) model.Fragment {
	return model.Fragment{
		Role:      role,
		Text:      text,
		Final:     final,
		Replace:   replace,
		TurnID:    t.id,
		CreatedAt: t.startedAt,
		UpdatedAt: d.now(),
	}
}

func (d *Dispatcher) emit(f model.Fragment) error {
	if !f.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFragment, f.Role)
	}
	outcome := "noop"
	if d.sink.Ingest(f) {
		outcome = "changed"
	}
	metrics.LiveFragmentsTotal.WithLabelValues(string(f.Role), outcome).Inc()
	return nil
}

func (d *Dispatcher) armCleanup() {
	d.cancelCleanup()
	gen := d.cleanupGen
	d.cleanupTimer = d.scheduler.AfterFunc(d.cfg.CleanupDelay, func() {
		if d.stopped || gen != d.cleanupGen {
			return
		}
		d.cleanupTimer = nil
		if d.sink.CleanupEmptyUserMessages() {
			d.logger.Debug("removed empty user messages after silence")
		}
	})
}

func (d *Dispatcher) cancelCleanup() {
	stop(d.cleanupTimer)
	d.cleanupTimer = nil
	d.cleanupGen++
}

func (d *Dispatcher) armRefresh() {
	d.cancelRefresh()
	gen := d.refreshGen
	d.refreshTimer = d.scheduler.AfterFunc(d.cfg.RefreshDelay, func() {
		if d.stopped || gen != d.refreshGen {
			return
		}
		d.refreshTimer = nil
		d.refresher.RequestRefresh()
	})
}

func (d *Dispatcher) cancelRefresh() {
	stop(d.refreshTimer)
	d.refreshTimer = nil
	d.refreshGen++
}

func decode(ev model.RealtimeEvent, v any) error {
	if len(ev.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(ev.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", ev.Type, err)
	}
	return nil
}

func stop(t Timer) {
	if t != nil {
		t.Stop()
	}
}

type nopRefresher struct{}

func (nopRefresher) RequestRefresh() {}

type nopAssets struct{}

func (nopAssets) HandleAsset(string) {}

// RealScheduler schedules callbacks with time.AfterFunc. Callbacks run on their own
// goroutine, so callers that need serialization must wrap them.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
