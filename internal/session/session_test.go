package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/voice-transcript/internal/dispatcher"
	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

const waitTimeout = 2 * time.Second

var testParticipants = model.Participants{UserID: "user-1", ParticipantID: "bot-1"}

func event(t *testing.T, typ model.EventType, data any) model.RealtimeEvent {
	t.Helper()

	ev := model.RealtimeEvent{Label: model.RealtimeLabel, Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		ev.Data = raw
	}
	return ev
}

func openTest(t *testing.T, history HistoryReader) *Session {
	t.Helper()

	cfg := Config{Dispatcher: dispatcher.Config{RefreshDelay: time.Hour, CleanupDelay: time.Hour}}
	s := Open(context.Background(), "conv-1", testParticipants, history, cfg, logger.NewNop())
	t.Cleanup(s.Close)
	return s
}

// waitSnapshot reads updates until one satisfies match.
func waitSnapshot(t *testing.T, updates <-chan Update, match func(model.LiveSnapshot) bool) model.LiveSnapshot {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case u, ok := <-updates:
			require.True(t, ok, "updates closed before the expected snapshot")
			if u.Snapshot != nil && match(*u.Snapshot) {
				return *u.Snapshot
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func texts(snap model.LiveSnapshot) []string {
	out := make([]string, len(snap.Messages))
	for i, m := range snap.Messages {
		out[i] = m.Content.Text
	}
	return out
}

func TestSession_PublishesSnapshots(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, nil).Times(2)

	s := openTest(t, history)
	updates, cancel := s.Subscribe()
	defer cancel()

	initial := waitSnapshot(t, updates, func(model.LiveSnapshot) bool { return true })
	assert.Empty(t, initial.Messages)

	s.Deliver(event(t, model.EventBotLLMStarted, nil))
	s.Deliver(event(t, model.EventBotLLMText, model.TextData{Text: "Hel"}))
	s.Deliver(event(t, model.EventBotLLMText, model.TextData{Text: "lo"}))

	snap := waitSnapshot(t, updates, func(s model.LiveSnapshot) bool {
		return len(s.Messages) == 1 && s.Messages[0].Content.Text == "Hello"
	})
	assert.Equal(t, "conv-1", snap.ConversationID)
	assert.False(t, snap.Messages[0].Final)
}

func TestSession_CloseRefreshesOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	gomock.InOrder(
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(1, nil),
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(2, nil),
	)

	s := openTest(t, history)
	updates, _ := s.Subscribe()

	s.Deliver(event(t, model.EventUserStartedSpeaking, nil))
	s.Deliver(event(t, model.EventUserTranscription, model.TranscriptData{Text: "hi", Final: true}))
	s.Deliver(event(t, model.EventUserStartedSpeaking, nil))
	waitSnapshot(t, updates, func(s model.LiveSnapshot) bool { return len(s.Messages) == 2 })

	s.Close()
	s.Close()

	var last *model.LiveSnapshot
	for u := range updates {
		if u.Snapshot != nil {
			last = u.Snapshot
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, []string{""}, texts(*last), "finalized messages are dropped by the final refresh")

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.SubmitText(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClosed)

	s.Deliver(event(t, model.EventBotLLMStarted, nil))
	s.RequestRefresh()
}

func TestSession_DisconnectEndsSession(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, nil).Times(2)

	s := openTest(t, history)
	s.Deliver(event(t, model.EventDisconnected, nil))

	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("session did not end after disconnect")
	}
	s.Close()
}

func TestSession_RefreshDropsFinalized(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	gomock.InOrder(
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(1, nil),
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(2, nil).Times(2),
	)

	s := openTest(t, history)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Deliver(event(t, model.EventBotLLMStarted, nil))
	s.Deliver(event(t, model.EventBotLLMText, model.TextData{Text: "done"}))
	s.Deliver(event(t, model.EventBotLLMStopped, nil))
	waitSnapshot(t, updates, func(s model.LiveSnapshot) bool {
		return len(s.Messages) == 1 && s.Messages[0].Final
	})

	s.RequestRefresh()
	waitSnapshot(t, updates, func(s model.LiveSnapshot) bool { return len(s.Messages) == 0 })
}

func TestSession_RefreshKeepsFinalizedUntilCountGrows(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)

	refreshed := make(chan struct{})
	gomock.InOrder(
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(5, nil),
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").DoAndReturn(
			func(context.Context, string) (int, error) {
				close(refreshed)
				return 5, nil
			},
		),
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(5, nil).AnyTimes(),
	)

	s := openTest(t, history)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Deliver(event(t, model.EventUserStartedSpeaking, nil))
	s.Deliver(event(t, model.EventUserTranscription, model.TranscriptData{Text: "hello there", Final: true}))
	waitSnapshot(t, updates, func(s model.LiveSnapshot) bool {
		return len(s.Messages) == 1 && s.Messages[0].Final
	})

	s.RequestRefresh()
	select {
	case <-refreshed:
	case <-time.After(waitTimeout):
		t.Fatal("refresh did not run")
	}

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hello there"}, texts(snap))
}

func TestSession_RefreshErrorKeepsLiveMessages(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	gomock.InOrder(
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, nil),
		history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, errors.New("db down")).Times(2),
	)

	s := openTest(t, history)
	_, err := s.SubmitText(context.Background(), "typed")
	require.NoError(t, err)

	s.RequestRefresh()
	require.Eventually(t, func() bool { return len(s.refreshCh) == 0 }, waitTimeout, 5*time.Millisecond)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"typed"}, texts(snap))
}

func TestSession_SubmitText(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, nil).AnyTimes()

	s := openTest(t, history)

	msg, err := s.SubmitText(context.Background(), "typed question")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, msg.Content.Role)
	assert.True(t, msg.Final)

	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, info.LiveMessages)
	assert.Equal(t, testParticipants, info.Participants)
}

func TestSession_AudioAsset(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, nil).AnyTimes()

	s := openTest(t, history)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Deliver(event(t, model.EventServerMessage, model.ServerMessageData{FileURL: "https://cdn.example.com/x.mp3"}))

	deadline := time.After(waitTimeout)
	for {
		select {
		case u := <-updates:
			if u.Audio != nil {
				assert.Equal(t, "https://cdn.example.com/x.mp3", u.Audio.FileURL)
				assert.Equal(t, "conv-1", u.Audio.ConversationID)
				return
			}
		case <-deadline:
			t.Fatal("no audio update")
		}
	}
}

func TestSession_SilenceCleanupRunsOnLoop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	history := NewMockHistoryReader(ctrl)
	history.EXPECT().CountMessages(gomock.Any(), "conv-1").Return(0, nil).AnyTimes()

	cfg := Config{Dispatcher: dispatcher.Config{CleanupDelay: 20 * time.Millisecond, RefreshDelay: time.Hour}}
	s := Open(context.Background(), "conv-1", testParticipants, history, cfg, logger.NewNop())
	t.Cleanup(s.Close)

	updates, cancel := s.Subscribe()
	defer cancel()

	s.Deliver(event(t, model.EventUserStartedSpeaking, nil))
	waitSnapshot(t, updates, func(s model.LiveSnapshot) bool { return len(s.Messages) == 1 })

	s.Deliver(event(t, model.EventUserStoppedSpeaking, nil))
	waitSnapshot(t, updates, func(s model.LiveSnapshot) bool { return len(s.Messages) == 0 })
}

func TestSubscriber_KeepsLatest(t *testing.T) {
	t.Parallel()

	sub := &subscriber{ch: make(chan Update, 2)}
	for v := uint64(1); v <= 5; v++ {
		sub.offer(Update{Snapshot: &model.LiveSnapshot{Version: v}})
	}

	require.Len(t, sub.ch, 2)
	<-sub.ch
	last := <-sub.ch
	assert.Equal(t, uint64(5), last.Snapshot.Version)
}
