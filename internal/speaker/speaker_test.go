// ABOUTME: Tests for the Speaker worker
// ABOUTME: Checks FIFO delivery across not-ready retries, counting and failure handling

package speaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
	"github.com/2389/shellbot/internal/spaces"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// flakySpace is not ready for its first notReady posts and fails on text "boom".
type flakySpace struct {
	mu       sync.Mutex
	notReady int
	attempts int
	posts    []events.Payload
}

func (s *flakySpace) Post(_ context.Context, p events.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.notReady > 0 {
		s.notReady--
		return spaces.ErrNotReady
	}
	if p.Text == "boom" {
		return errors.New("transport failure")
	}
	s.posts = append(s.posts, p)
	return nil
}

func (s *flakySpace) Ready() bool { return true }

func (s *flakySpace) delivered() []events.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Payload(nil), s.posts...)
}

func newConfig(space spaces.Space) Config {
	return Config{
		Context:       botctx.New(map[string]any{"general.switch": "on"}),
		Mouth:         queue.New[any](16),
		Space:         space,
		PollInterval:  5 * time.Millisecond,
		NotReadyDelay: 5 * time.Millisecond,
	}
}

func run(t *testing.T, cfg Config, items ...any) {
	t.Helper()
	ctx := context.Background()
	for _, item := range items {
		require.NoError(t, cfg.Mouth.Put(ctx, item))
	}

	done := make(chan error, 1)
	go func() { done <- New(cfg).Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("speaker did not stop")
	}
}

func TestSpeaker_PreservesOrderAcrossNotReady(t *testing.T) {
	space := &flakySpace{notReady: 3}
	cfg := newConfig(space)

	run(t, cfg, "A", events.NewPayload("B", events.WithContent("*b*")), nil)

	want := []events.Payload{
		{Text: "A"},
		{Text: "B", Content: "*b*"},
	}
	if diff := cmp.Diff(want, space.delivered()); diff != "" {
		t.Errorf("delivered payloads mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, space.attempts)
	assert.Equal(t, 2, cfg.Context.GetInt(botctx.KeySpeakerCounter, 0))
}

func TestSpeaker_ForwardsEveryField(t *testing.T) {
	space := &flakySpace{}
	cfg := newConfig(space)

	p := events.NewPayload("report", events.WithContent("# Report"), events.WithFile("/tmp/r.pdf"), events.ToSpace("!other"))
	run(t, cfg, &p, nil)

	want := []events.Payload{{Text: "report", Content: "# Report", File: "/tmp/r.pdf", SpaceID: "!other"}}
	if diff := cmp.Diff(want, space.delivered()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSpeaker_FailedPostIsDroppedAndLoopContinues(t *testing.T) {
	space := &flakySpace{}
	cfg := newConfig(space)

	run(t, cfg, "boom", 42, "after", nil)

	if diff := cmp.Diff([]events.Payload{{Text: "after"}}, space.delivered()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, cfg.Context.GetInt(botctx.KeySpeakerCounter, 0))
}

func TestSpeaker_WithoutSpaceCountsLoggedItems(t *testing.T) {
	cfg := newConfig(nil)
	run(t, cfg, "one", "two", nil)
	assert.Equal(t, 2, cfg.Context.GetInt(botctx.KeySpeakerCounter, 0))
}

func TestSpeaker_SwitchOffWhileNotReady(t *testing.T) {
	space := &flakySpace{notReady: 1 << 30}
	cfg := newConfig(space)
	require.NoError(t, cfg.Mouth.Put(context.Background(), "stuck"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = New(cfg).Run(context.Background())
	}()

	require.Eventually(t, func() bool {
		space.mu.Lock()
		defer space.mu.Unlock()
		return space.attempts > 1
	}, time.Second, time.Millisecond)
	cfg.Context.Set(botctx.KeySwitch, botctx.SwitchOff)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("speaker ignored the switch")
	}
	assert.Empty(t, space.delivered())
}

func TestSpeaker_HoldsItemsUntilSpaceIsBound(t *testing.T) {
	space := spaces.NewLocal(nil)
	cfg := newConfig(space)

	ctx := context.Background()
	require.NoError(t, cfg.Mouth.Put(ctx, "first"))
	require.NoError(t, cfg.Mouth.Put(ctx, "second"))
	require.NoError(t, cfg.Mouth.Put(ctx, nil))

	done := make(chan error, 1)
	go func() { done <- New(cfg).Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, space.Posts())
	assert.Equal(t, 0, cfg.Context.GetInt(botctx.KeySpeakerCounter, 0))

	space.Bind("!room:example.org")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("speaker did not stop")
	}
	want := []events.Payload{{Text: "first"}, {Text: "second"}}
	if diff := cmp.Diff(want, space.Posts()); diff != "" {
		t.Errorf("delivered payloads mismatch (-want +got):\n%s", diff)
	}
}
