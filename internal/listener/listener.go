// ABOUTME: Listener worker turning inbound chat events into command lines
// ABOUTME: Filters malformed and self-authored items and strips the bot's address

package listener

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/dedupe"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
)

const (
	// DefaultPollInterval bounds each wait on the ears queue.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultFanWindow is how fresh fan.stamp must be for unaddressed
	// lines to be routed to the fan queue.
	DefaultFanWindow = time.Second
)

// Dispatcher executes command lines.
type Dispatcher interface {
	Do(ctx context.Context, line string)
}

// Observer receives events that are not chat messages.
type Observer func(ctx context.Context, event events.Event)

// Config wires a Listener.
type Config struct {
	Context    *botctx.Context
	Ears       *queue.Queue[any]
	Dispatcher Dispatcher

	Tee      *queue.Queue[any] // optional audit copy of raw items
	Fan      *queue.Queue[any] // optional input for waiting machines
	Seen     *dedupe.Cache     // optional redelivery guard
	Observer Observer

	PollInterval time.Duration
	FanWindow    time.Duration
	Logger       *slog.Logger
}

// Listener is the inbound worker.
type Listener struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a listener. Context, Ears and Dispatcher are required.
func New(cfg Config) *Listener {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FanWindow <= 0 {
		cfg.FanWindow = DefaultFanWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		cfg:    cfg,
		logger: logger.With("component", "listener"),
		now:    time.Now,
	}
}

// Run drains the ears queue until the sentinel, the switch or ctx stops it.
func (l *Listener) Run(ctx context.Context) error {
	l.cfg.Context.Set(botctx.KeyListenerCounter, 0)
	l.logger.Info("listener started")
	defer l.logger.Info("listener stopped")

	for l.cfg.Context.IsOn() {
		item, err := l.cfg.Ears.Get(ctx, l.cfg.PollInterval)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			// context cancelled
			return nil
		}

		if sentinel, ok := item.(error); ok {
			l.logger.Debug("end of inbound stream", "reason", sentinel)
			return nil
		}

		l.cfg.Context.Increment(botctx.KeyListenerCounter, 1)
		l.safeHandle(ctx, item)
	}
	return nil
}

func (l *Listener) safeHandle(ctx context.Context, item any) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("unexpected failure while handling inbound item", "panic", r)
		}
	}()
	l.Handle(ctx, item)
}

// Handle processes one inbound item.
func (l *Listener) Handle(ctx context.Context, item any) {
	if l.cfg.Tee != nil {
		if err := l.cfg.Tee.TryPut(item); err != nil {
			l.logger.Warn("tee queue full, audit copy dropped")
		}
	}

	event, err := events.Parse(item)
	if err != nil {
		l.logger.Debug("discarding inbound item", "error", err)
		return
	}

	if event.ID != "" && l.cfg.Seen != nil && l.cfg.Seen.Seen(event.ID) {
		l.logger.Debug("discarding redelivered event", "event_id", event.ID)
		return
	}

	if botID := l.cfg.Context.GetString(botctx.KeyBotID, ""); botID != "" && event.ActorID == botID {
		return
	}

	if event.Kind != events.KindMessage {
		if l.cfg.Observer != nil {
			l.cfg.Observer(ctx, event)
		}
		return
	}

	if line, ok := Addressed(event.Text, l.cfg.Context.GetString(botctx.KeyBotName, "")); ok {
		l.logger.Debug("dispatching", "actor", event.ActorID, "line", line)
		l.cfg.Dispatcher.Do(ctx, line)
		return
	}

	if l.fanActive() {
		if err := l.cfg.Fan.TryPut(event.Text); err != nil {
			l.logger.Warn("fan queue full, reply dropped", "actor", event.ActorID)
		}
	}
}

// fanActive reports whether a machine refreshed fan.stamp recently.
func (l *Listener) fanActive() bool {
	if l.cfg.Fan == nil {
		return false
	}
	stamp, ok := l.cfg.Context.Get(botctx.KeyFanStamp, nil).(time.Time)
	return ok && l.now().Sub(stamp) <= l.cfg.FanWindow
}

// Addressed reports whether text starts with name, optionally preceded by
// '@' or '/' and followed by ':' or ','. It returns the remaining line.
func Addressed(text, name string) (string, bool) {
	if name == "" {
		return "", false
	}

	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "@") || strings.HasPrefix(text, "/") {
		text = text[1:]
	}

	token, rest := text, ""
	if idx := strings.IndexFunc(text, unicode.IsSpace); idx >= 0 {
		token, rest = text[:idx], text[idx:]
	}
	token = strings.TrimRight(token, ":,")

	if !strings.EqualFold(token, name) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
