// ABOUTME: Tests for the Listener worker
// ABOUTME: Covers counting, self-echo suppression, addressing, tee, dedupe, observer and fan routing

package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/dedupe"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
)

const botID = "@shelly:example.org"

type recordingShell struct {
	mu    sync.Mutex
	lines []string
	panic bool
}

func (s *recordingShell) Do(_ context.Context, line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
	if s.panic {
		panic("dispatch failed")
	}
}

func (s *recordingShell) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func setup(t *testing.T) (Config, *recordingShell) {
	t.Helper()
	shell := &recordingShell{}
	cfg := Config{
		Context: botctx.New(map[string]any{
			"general": map[string]any{"switch": "on"},
			"bot":     map[string]any{"name": "Shelly", "id": botID},
		}),
		Ears:         queue.New[any](32),
		Dispatcher:   shell,
		PollInterval: 5 * time.Millisecond,
	}
	return cfg, shell
}

func message(actor, text string) map[string]any {
	return map[string]any{"type": "message", "actor_id": actor, "text": text}
}

// runAll pushes items followed by the sentinel and waits for Run to return.
func runAll(t *testing.T, cfg Config, items ...any) {
	t.Helper()
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	for _, item := range items {
		require.NoError(t, cfg.Ears.Put(ctx, item))
	}
	require.NoError(t, cfg.Ears.Put(ctx, events.EndOfStream))

	done := make(chan error, 1)
	go func() { done <- New(cfg).Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on sentinel")
	}
}

func TestListener_CountsEveryItemOnce(t *testing.T) {
	cfg, shell := setup(t)

	runAll(t, cfg,
		message("@alice:example.org", "shelly help"),
		"not an event",
		map[string]any{"text": "no actor"},
		message(botID, "shelly echo myself"),
		message("@bob:example.org", "unrelated chatter"),
	)

	assert.Equal(t, 5, cfg.Context.GetInt(botctx.KeyListenerCounter, -1))
	assert.Equal(t, []string{"help"}, shell.got())
}

func TestListener_SelfAuthoredNeverDispatched(t *testing.T) {
	cfg, shell := setup(t)

	runAll(t, cfg,
		message(botID, "shelly version"),
		events.Event{Kind: events.KindMessage, ActorID: botID, Text: "@shelly help"},
	)

	assert.Empty(t, shell.got())
}

func TestListener_AddressFormsDispatchIdentically(t *testing.T) {
	cfg, shell := setup(t)

	runAll(t, cfg,
		message("@alice", "@shelly todo buy milk"),
		message("@alice", "/SHELLY todo buy milk"),
		message("@alice", "Shelly: todo buy milk"),
		message("@alice", "  shelly,   todo buy milk"),
		message("@alice", "shellyx todo buy milk"),
		message("@alice", "todo buy milk"),
	)

	assert.Equal(t, []string{"todo buy milk", "todo buy milk", "todo buy milk", "todo buy milk"}, shell.got())
}

func TestAddressed(t *testing.T) {
	tests := []struct {
		text string
		line string
		ok   bool
	}{
		{text: "shelly", line: "", ok: true},
		{text: "@shelly   ", line: "", ok: true},
		{text: "/shelly state", line: "state", ok: true},
		{text: "@@shelly state", ok: false},
		{text: "hello shelly", ok: false},
		{text: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			line, ok := Addressed(tt.text, "shelly")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.line, line)
		})
	}

	_, ok := Addressed("shelly help", "")
	assert.False(t, ok, "an unnamed bot is never addressed")
}

func TestListener_TeeGetsRawItemsBeforeFiltering(t *testing.T) {
	cfg, _ := setup(t)
	cfg.Tee = queue.New[any](8)

	raw := message(botID, "shelly help")
	runAll(t, cfg, raw, "garbage")

	assert.Equal(t, []any{raw, "garbage"}, cfg.Tee.Drain())
}

func TestListener_DropsRedeliveredEvents(t *testing.T) {
	cfg, shell := setup(t)
	cfg.Seen = dedupe.New(time.Minute, 100)

	item := map[string]any{"id": "$evt1", "actor_id": "@alice", "text": "shelly help"}
	runAll(t, cfg, item, item)

	assert.Equal(t, []string{"help"}, shell.got())
	assert.Equal(t, 2, cfg.Context.GetInt(botctx.KeyListenerCounter, 0))
}

func TestListener_ObserverReceivesNonMessages(t *testing.T) {
	cfg, shell := setup(t)
	var seen []events.Kind
	cfg.Observer = func(_ context.Context, e events.Event) { seen = append(seen, e.Kind) }

	runAll(t, cfg,
		map[string]any{"type": "join", "actor_id": "@carol"},
		map[string]any{"type": "attachment", "actor_id": "@carol", "url": "mxc://x/y"},
		map[string]any{"type": "leave", "actor_id": "@carol"},
	)

	assert.Equal(t, []events.Kind{events.KindJoin, events.KindAttachment, events.KindLeave}, seen)
	assert.Empty(t, shell.got())
}

func TestListener_FanRouting(t *testing.T) {
	t.Run("waiting machine receives unaddressed replies", func(t *testing.T) {
		cfg, shell := setup(t)
		cfg.Fan = queue.New[any](8)
		cfg.Context.Set(botctx.KeyFanStamp, time.Now().Add(time.Hour))

		runAll(t, cfg,
			message("@alice", "1234Z"),
			message("@alice", "shelly state"),
		)

		assert.Equal(t, []any{"1234Z"}, cfg.Fan.Drain())
		assert.Equal(t, []string{"state"}, shell.got())
	})

	t.Run("stale stamp discards", func(t *testing.T) {
		cfg, _ := setup(t)
		cfg.Fan = queue.New[any](8)
		cfg.Context.Set(botctx.KeyFanStamp, time.Now().Add(-time.Hour))

		runAll(t, cfg, message("@alice", "1234Z"))

		assert.Zero(t, cfg.Fan.Len())
	})
}

func TestListener_SurvivesDispatchPanics(t *testing.T) {
	cfg, shell := setup(t)
	shell.panic = true

	runAll(t, cfg, message("@a", "shelly one"), message("@a", "shelly two"))

	assert.Equal(t, []string{"one", "two"}, shell.got())
	assert.Equal(t, 2, cfg.Context.GetInt(botctx.KeyListenerCounter, 0))
}

func TestListener_StopsWhenSwitchTurnsOff(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg, _ := setup(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = New(cfg).Run(context.Background())
	}()

	cfg.Context.Set(botctx.KeySwitch, botctx.SwitchOff)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener ignored the switch")
	}
}

func TestListener_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- New(cfg).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener ignored cancellation")
	}
}
