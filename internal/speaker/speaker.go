// ABOUTME: Speaker worker posting outbound payloads to the bound space
// ABOUTME: Retries the head item while the space is not ready and counts posts

package speaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
	"github.com/2389/shellbot/internal/spaces"
)

const (
	// DefaultPollInterval bounds each wait on the mouth queue.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultNotReadyDelay is the back-off while the space is not ready.
	DefaultNotReadyDelay = 5 * time.Second
)

// Config wires a Speaker.
type Config struct {
	Context *botctx.Context
	Mouth   *queue.Queue[any]

	// Space receives payloads. Without one, payloads are only logged.
	Space spaces.Space

	PollInterval  time.Duration
	NotReadyDelay time.Duration
	Logger        *slog.Logger
}

// Speaker is the outbound worker.
type Speaker struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a speaker.
func New(cfg Config) *Speaker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.NotReadyDelay <= 0 {
		cfg.NotReadyDelay = DefaultNotReadyDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{
		cfg:    cfg,
		logger: logger.With("component", "speaker"),
	}
}

// Run drains the mouth queue until nil, the switch or ctx stops it.
func (s *Speaker) Run(ctx context.Context) error {
	s.cfg.Context.Set(botctx.KeySpeakerCounter, 0)
	s.logger.Info("speaker started")
	defer s.logger.Info("speaker stopped")

	for s.cfg.Context.IsOn() {
		item, err := s.cfg.Mouth.Get(ctx, s.cfg.PollInterval)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			return nil
		}
		if item == nil {
			s.logger.Debug("end of outbound stream")
			return nil
		}

		if !s.deliver(ctx, item) {
			return nil
		}
	}
	return nil
}

// deliver posts one item, waiting out not-ready spells. It returns false
// when the speaker must stop while the item is still pending.
func (s *Speaker) deliver(ctx context.Context, item any) bool {
	payload, err := events.ToPayload(item)
	if err != nil {
		s.logger.Warn("discarding outbound item", "error", err)
		return true
	}

	for {
		err := s.post(ctx, payload)
		switch {
		case err == nil:
			s.cfg.Context.Increment(botctx.KeySpeakerCounter, 1)
			return true
		case errors.Is(err, spaces.ErrNotReady):
			s.logger.Debug("space not ready, holding item", "delay", s.cfg.NotReadyDelay)
			select {
			case <-ctx.Done():
				return false
			case <-time.After(s.cfg.NotReadyDelay):
			}
			if !s.cfg.Context.IsOn() {
				return false
			}
		default:
			s.logger.Error("posting failed, item dropped", "error", err)
			return true
		}
	}
}

func (s *Speaker) post(ctx context.Context, payload events.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("unexpected failure while posting", "panic", r)
			err = errors.New("post panicked")
		}
	}()

	if s.cfg.Space == nil {
		s.logger.Info("outbound", "text", payload.Text, "content", payload.Content, "file", payload.File, "space_id", payload.SpaceID)
		return nil
	}
	if !s.cfg.Space.Ready() {
		return spaces.ErrNotReady
	}
	return s.cfg.Space.Post(ctx, payload)
}
