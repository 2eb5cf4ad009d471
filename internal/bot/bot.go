// ABOUTME: Bot wiring the context, queues, shell and workers of the agent
// ABOUTME: Exposes the agent API used by commands and machines

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/dedupe"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/listener"
	"github.com/2389/shellbot/internal/machines"
	"github.com/2389/shellbot/internal/queue"
	"github.com/2389/shellbot/internal/shell"
	"github.com/2389/shellbot/internal/spaces"
	"github.com/2389/shellbot/internal/speaker"
	"github.com/2389/shellbot/internal/store"
	"github.com/2389/shellbot/internal/updaters"
)

const (
	// DefaultName answers to "shellbot ..." when no name is configured.
	DefaultName = "shellbot"

	dedupeTTL  = 10 * time.Minute
	dedupeSize = 10000
)

// Handler reacts to a non-message event (join, leave, attachment).
type Handler func(ctx context.Context, b *Bot, event events.Event)

// Config assembles a Bot.
type Config struct {
	// Settings seed the Context; nested maps become dotted keys.
	Settings map[string]any

	Name    string
	Version string

	Space   spaces.Space
	Todos   store.TodoStore  // enables todo commands
	Updater updaters.Updater // enables the auditor

	QueueCapacity int
	PollInterval  time.Duration
	NotReadyDelay time.Duration
	FanWindow     time.Duration

	Logger *slog.Logger
}

// runner is implemented by spaces with their own receive loop.
type runner interface {
	Run(ctx context.Context) error
}

// Bot is the running agent.
type Bot struct {
	ctx    *botctx.Context
	ears   *queue.Queue[any]
	mouth  *queue.Queue[any]
	fan    *queue.Queue[any]
	tee    *queue.Queue[any]
	shell  *shell.Shell
	space  spaces.Space
	logger *slog.Logger

	listener   *listener.Listener
	speaker    *speaker.Speaker
	speakerCfg speaker.Config
	auditor    *updaters.Auditor

	mu       sync.Mutex
	machine  machines.Machine
	handlers map[events.Kind][]Handler
	cancel   context.CancelFunc
}

// New builds a bot with the generic commands loaded.
func New(cfg Config) (*Bot, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = queue.DefaultCapacity
	}

	bctx := botctx.New(cfg.Settings)
	if cfg.Name != "" {
		bctx.Set(botctx.KeyBotName, cfg.Name)
	}
	if err := bctx.Check(botctx.KeyBotName, DefaultName, true); err != nil {
		return nil, err
	}

	b := &Bot{
		ctx:      bctx,
		ears:     queue.New[any](capacity),
		mouth:    queue.New[any](capacity),
		fan:      queue.New[any](capacity),
		space:    cfg.Space,
		logger:   logger.With("component", "bot"),
		handlers: make(map[events.Kind][]Handler),
	}
	b.shell = shell.New(b, logger)

	cmds := []shell.Command{
		shell.NewDefault(),
		shell.NewEmpty(b.shell),
		shell.NewHelp(b.shell),
		shell.NewEcho(),
		shell.NewInput(),
		shell.NewVersion(cfg.Version),
	}
	if cfg.Todos != nil {
		cmds = append(cmds,
			shell.NewTodo(cfg.Todos),
			shell.NewTodos(cfg.Todos),
			shell.NewDone(cfg.Todos),
			shell.NewDrop(cfg.Todos),
		)
	}
	if cfg.Updater != nil {
		b.tee = queue.New[any](capacity)
		b.auditor = updaters.NewAuditor(bctx, b.tee, cfg.Updater, logger)
		cmds = append(cmds, shell.NewAudit())
	}
	if err := b.shell.Load(cmds...); err != nil {
		return nil, fmt.Errorf("loading commands: %w", err)
	}

	b.listener = listener.New(listener.Config{
		Context:      bctx,
		Ears:         b.ears,
		Dispatcher:   b.shell,
		Tee:          b.tee,
		Fan:          b.fan,
		Seen:         dedupe.New(dedupeTTL, dedupeSize),
		Observer:     b.observe,
		PollInterval: cfg.PollInterval,
		FanWindow:    cfg.FanWindow,
		Logger:       logger,
	})
	b.speakerCfg = speaker.Config{
		Context:       bctx,
		Mouth:         b.mouth,
		Space:         cfg.Space,
		PollInterval:  cfg.PollInterval,
		NotReadyDelay: cfg.NotReadyDelay,
		Logger:        logger,
	}
	b.speaker = speaker.New(b.speakerCfg)

	return b, nil
}

// Attach sets the space a bot posts to. It must be called before Run.
func (b *Bot) Attach(space spaces.Space) {
	b.space = space
	b.speakerCfg.Space = space
	b.speaker = speaker.New(b.speakerCfg)
}

// Load registers additional commands.
func (b *Bot) Load(cmds ...shell.Command) error {
	return b.shell.Load(cmds...)
}

// SetMachine installs the machine started by Run. A machine that can be
// stepped also gets the step, next, back and state commands.
func (b *Bot) SetMachine(m machines.Machine) error {
	if stepper, ok := m.(shell.Stepper); ok {
		if err := b.shell.Load(
			shell.NewStep("step", stepper),
			shell.NewStep("next", stepper),
			shell.NewBack(stepper),
			shell.NewState(stepper),
		); err != nil {
			return fmt.Errorf("loading process commands: %w", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.machine = m
	return nil
}

// Register adds a handler for events of kind.
func (b *Bot) Register(kind events.Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

func (b *Bot) observe(ctx context.Context, event events.Event) {
	b.mu.Lock()
	handlers := append([]Handler(nil), b.handlers[event.Kind]...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, b, event)
	}
}

// Run starts every worker and blocks until they have all stopped.
func (b *Bot) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	machine := b.machine
	b.mu.Unlock()
	defer cancel()

	b.ctx.Set(botctx.KeySwitch, botctx.SwitchOn)
	b.logger.Info("bot starting", "name", b.ctx.GetString(botctx.KeyBotName, DefaultName))

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return b.listener.Run(gctx) })
	g.Go(func() error { return b.speaker.Run(gctx) })
	if b.auditor != nil {
		g.Go(func() error { return b.auditor.Run(gctx) })
	}
	if r, ok := b.space.(runner); ok {
		g.Go(func() error { return r.Run(gctx) })
	}
	if machine != nil {
		g.Go(func() error {
			select {
			case <-machine.Start(gctx):
			case <-gctx.Done():
				machine.Stop()
			}
			return nil
		})
	}

	// wake every worker as soon as one of them fails or ctx ends
	go func() {
		<-gctx.Done()
		b.Stop()
	}()

	err := g.Wait()
	b.logger.Info("bot stopped")
	return err
}

// Stop asks every worker to finish.
func (b *Bot) Stop() {
	if !b.ctx.IsOn() {
		return
	}
	b.ctx.Set(botctx.KeySwitch, botctx.SwitchOff)

	_ = b.ears.TryPut(events.EndOfStream)
	_ = b.mouth.TryPut(nil)
	_ = b.fan.TryPut(nil)
	if b.tee != nil {
		_ = b.tee.TryPut(events.EndOfStream)
	}

	b.mu.Lock()
	machine := b.machine
	cancel := b.cancel
	b.mu.Unlock()

	if machine != nil {
		machine.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// Say queues a payload for the default space.
func (b *Bot) Say(text string, opts ...events.Option) {
	payload := events.NewPayload(text, opts...)
	if err := b.mouth.TryPut(payload); err != nil {
		b.logger.Warn("outbound queue full, payload dropped", "text", payload.Text)
	}
}

// RespondTo returns a Sayer posting to spaceID.
func (b *Bot) RespondTo(spaceID string) shell.Sayer {
	return sayerFunc(func(text string, opts ...events.Option) {
		b.Say(text, append(opts, events.ToSpace(spaceID))...)
	})
}

// Recall returns the value stored under key, or nil.
func (b *Bot) Recall(key string) any {
	return b.ctx.Get(key, nil)
}

// Store saves value under key.
func (b *Bot) Store(key string, value any) {
	b.ctx.Set(key, value)
}

// Invite asks the space to add participants, when it can.
func (b *Bot) Invite(ctx context.Context, participants []string) error {
	inviter, ok := b.space.(machines.Inviter)
	if !ok {
		b.logger.Info("space cannot invite participants", "participants", participants)
		return nil
	}
	return inviter.Invite(ctx, participants)
}

// Context returns the shared coordination store.
func (b *Bot) Context() *botctx.Context { return b.ctx }

// Fan returns the queue feeding waiting machines.
func (b *Bot) Fan() *queue.Queue[any] { return b.fan }

// Ears returns the inbound queue.
func (b *Bot) Ears() *queue.Queue[any] { return b.ears }

type sayerFunc func(text string, opts ...events.Option)

func (f sayerFunc) Say(text string, opts ...events.Option) { f(text, opts...) }

var (
	_ shell.Agent      = (*Bot)(nil)
	_ machines.Bot     = (*Bot)(nil)
	_ machines.Inviter = (*Bot)(nil)
)
