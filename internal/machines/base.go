// ABOUTME: Table-driven finite-state machine with a fan-queue worker loop
// ABOUTME: Provides reset/start/stop lifecycle for every concrete machine

package machines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/queue"
)

// Events fired by the worker loop.
const (
	EventStart = "start"
	EventInput = "input"
	EventTick  = "tick"
)

// DefaultTick bounds each wait on the fan queue.
const DefaultTick = 200 * time.Millisecond

// Transition moves the machine from Source to Target on Event.
// Transitions are tried in declaration order; the first one whose
// Condition accepts the argument wins.
type Transition struct {
	Source    string
	Target    string
	Event     string
	Condition func(arg any) bool
	Action    func(arg any)
}

// Base is the FSM engine embedded by concrete machines.
type Base struct {
	bot    Bot
	logger *slog.Logger
	id     string

	// Tick is the bounded wait on the fan queue.
	Tick time.Duration

	mu        sync.Mutex
	initial   string
	state     string
	enteredAt time.Time
	outgoing  map[string][]Transition
	status    Status
	outcome   Status
	cancel    context.CancelFunc
	done      chan struct{}
	resetHook func()
	now       func() time.Time
}

// NewBase creates an unbuilt machine bound to bot.
func NewBase(bot Bot, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Base{
		bot:      bot,
		id:       id,
		logger:   logger.With("component", "machine", "machine_id", id),
		Tick:     DefaultTick,
		status:   StatusIdle,
		outgoing: make(map[string][]Transition),
		now:      time.Now,
	}
}

// Build installs the state table. Every transition must join declared states.
func (b *Base) Build(states []string, transitions []Transition, initial string) error {
	known := make(map[string]bool, len(states))
	for _, s := range states {
		known[s] = true
	}
	if !known[initial] {
		return fmt.Errorf("initial state %q is not declared", initial)
	}

	outgoing := make(map[string][]Transition)
	for _, t := range transitions {
		if !known[t.Source] || !known[t.Target] {
			return fmt.Errorf("transition %s -> %s uses an undeclared state", t.Source, t.Target)
		}
		if t.Event == "" {
			return fmt.Errorf("transition %s -> %s has no event", t.Source, t.Target)
		}
		outgoing[t.Source] = append(outgoing[t.Source], t)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.initial = initial
	b.state = initial
	b.enteredAt = b.now()
	b.outgoing = outgoing
	return nil
}

// ID identifies the machine in logs.
func (b *Base) ID() string { return b.id }

// Bot returns the agent the machine talks through.
func (b *Base) Bot() Bot { return b.bot }

// Logger returns the machine's component logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// State returns the current FSM state.
func (b *Base) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status returns the lifecycle status.
func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Since returns how long the machine has been in its current state.
func (b *Base) Since() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Sub(b.enteredAt)
}

// Finish records the status to report once a terminal state is reached.
// Without it, reaching a terminal state means completed.
func (b *Base) Finish(outcome Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcome = outcome
}

// OnReset registers a hook clearing machine-local storage.
func (b *Base) OnReset(fn func()) {
	b.resetHook = fn
}

// Step fires event. It reports whether a transition was taken.
// Conditions and actions run without the machine lock held.
func (b *Base) Step(event string, arg any) bool {
	b.mu.Lock()
	source := b.state
	candidates := b.outgoing[source]
	b.mu.Unlock()

	var chosen *Transition
	for i := range candidates {
		t := &candidates[i]
		if t.Event != event {
			continue
		}
		if t.Condition != nil && !t.Condition(arg) {
			continue
		}
		chosen = t
		break
	}
	if chosen == nil {
		return false
	}

	b.mu.Lock()
	if b.state != source {
		b.mu.Unlock()
		return false
	}
	if chosen.Target != source {
		b.logger.Debug("transition", "event", event, "from", source, "to", chosen.Target)
		b.state = chosen.Target
		b.enteredAt = b.now()
	}
	b.mu.Unlock()

	if chosen.Action != nil {
		chosen.Action(arg)
	}
	return true
}

// terminal reports whether the current state has no way out.
func (b *Base) terminal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.outgoing[b.state]) == 0
}

// Reset returns to the initial state. It fails while running.
func (b *Base) Reset() bool {
	b.mu.Lock()
	if b.status == StatusRunning {
		b.mu.Unlock()
		return false
	}
	b.state = b.initial
	b.enteredAt = b.now()
	b.status = StatusIdle
	b.outcome = ""
	b.done = nil
	hook := b.resetHook
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Start launches the worker goroutine. Starting a machine that already
// ran returns the channel of that run.
func (b *Base) Start(ctx context.Context) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done != nil {
		return b.done
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.status = StatusRunning

	go b.run(runCtx, b.done)
	return b.done
}

// Stop cancels the worker. The machine reaches a terminal status within one tick.
func (b *Base) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// IsRunning reports whether the worker is active.
func (b *Base) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status == StatusRunning
}

func (b *Base) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer b.bot.Context().Delete(botctx.KeyFanStamp)

	b.safeStep(EventStart, nil)

	for !b.terminal() {
		if ctx.Err() != nil || !b.bot.Context().IsOn() {
			b.settle(StatusCancelled)
			return
		}

		b.bot.Context().Set(botctx.KeyFanStamp, b.now())

		item, err := b.bot.Fan().Get(ctx, b.Tick)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			b.safeStep(EventTick, nil)
		case err != nil:
			b.settle(StatusCancelled)
			return
		case item == nil:
			b.logger.Debug("fan closed")
			b.settle(StatusCancelled)
			return
		default:
			b.safeStep(EventInput, item)
		}
	}

	b.settle(StatusCompleted)
}

// settle moves to the final status and releases the worker context.
func (b *Base) settle(fallback Status) {
	b.mu.Lock()
	status := fallback
	if fallback == StatusCompleted && b.outcome != "" {
		status = b.outcome
	}
	b.status = status
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.logger.Debug("machine finished", "status", status)
}

// safeStep isolates action failures from the worker loop.
func (b *Base) safeStep(event string, arg any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("machine action panicked", "event", event, "panic", r)
		}
	}()
	b.Step(event, arg)
}
