// ABOUTME: Steps machine walking a named list of steps on next/back commands
// ABOUTME: Each step is announced, may invite participants and may run a bound machine

package machines

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/shellbot/internal/events"
)

// InviteTimeout bounds the invitation of a step's participants.
const InviteTimeout = 30 * time.Second

// Step is one stage of a Steps process.
type Step struct {
	Label        string
	Message      string
	Content      string
	Participants []string
	Machine      Machine
}

// StepsOptions configures a Steps machine.
type StepsOptions struct {
	// CancelOnAdvance stops a running step machine on next/back instead of
	// rejecting the move with ErrStepBusy.
	CancelOnAdvance bool

	// Recycle wraps next from the last step to the first and keeps the
	// process alive after the last step completes.
	Recycle bool

	Logger *slog.Logger
}

// Steps is a process moved forward and back by external commands.
type Steps struct {
	bot    Bot
	steps  []Step
	opts   StepsOptions
	logger *slog.Logger

	mu         sync.Mutex
	index      int
	generation int
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	stepDone   <-chan struct{}
}

// NewSteps creates a process over steps.
func NewSteps(bot Bot, steps []Step, opts StepsOptions) (*Steps, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("steps machine needs at least one step")
	}
	for i, st := range steps {
		if st.Label == "" {
			return nil, fmt.Errorf("step %d has no label", i+1)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Steps{
		bot:    bot,
		steps:  steps,
		opts:   opts,
		logger: logger.With("component", "steps"),
		index:  -1,
	}, nil
}

// Reset rewinds before the first step. It fails while running.
func (s *Steps) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	for _, st := range s.steps {
		if st.Machine != nil && !st.Machine.Reset() {
			return false
		}
	}
	s.index = -1
	s.done = nil
	s.stepDone = nil
	return true
}

// Start enters the first step.
func (s *Steps) Start(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return s.done
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	s.enter(0)

	go func(ctx context.Context, done chan struct{}) {
		<-ctx.Done()
		s.stopRun(done)
	}(s.ctx, s.done)

	return s.done
}

// Stop ends the process and stops the current step machine.
func (s *Steps) Stop() {
	s.stopRun(nil)
}

// stopRun stops the run identified by done, or the current run when done
// is nil. A later run started after Reset is left alone.
func (s *Steps) stopRun(done chan struct{}) {
	s.mu.Lock()
	if !s.running || (done != nil && s.done != done) {
		s.mu.Unlock()
		return
	}
	current := s.done
	machine := s.currentMachine()
	stepDone := s.stepDone
	s.mu.Unlock()

	if machine != nil && stepDone != nil {
		machine.Stop()
		<-stepDone
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != current {
		return
	}
	s.finish()
}

// IsRunning reports whether the process is active.
func (s *Steps) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Next moves to the following step.
func (s *Steps) Next(ctx context.Context) error {
	return s.move(ctx, +1)
}

// Back moves to the previous step.
func (s *Steps) Back(ctx context.Context) error {
	return s.move(ctx, -1)
}

// Current returns the active step and its 0-based index, or -1.
func (s *Steps) Current() (Step, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		return Step{}, -1
	}
	return s.steps[s.index], s.index
}

// Describe renders the current position for humans.
func (s *Steps) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.index < 0 {
		return "Process is not running"
	}
	st := s.steps[s.index]
	return fmt.Sprintf("Current state: %s - %s", st.Label, st.Message)
}

func (s *Steps) move(ctx context.Context, delta int) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}

	target := s.index + delta
	if target >= len(s.steps) && s.opts.Recycle {
		target = 0
	}
	if target < 0 || target >= len(s.steps) {
		s.mu.Unlock()
		return ErrBoundary
	}

	machine := s.currentMachine()
	stepDone := s.stepDone
	busy := machine != nil && machine.IsRunning()
	if busy && !s.opts.CancelOnAdvance {
		s.mu.Unlock()
		return ErrStepBusy
	}
	// ignore the completion of the machine being left behind
	s.generation++
	s.mu.Unlock()

	if busy {
		machine.Stop()
		select {
		case <-stepDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.enter(target)
	return nil
}

// enter announces step i and starts its machine. Callers hold s.mu.
func (s *Steps) enter(i int) {
	s.index = i
	s.generation++
	st := s.steps[i]

	s.logger.Info("entering step", "index", i, "label", st.Label)

	text := fmt.Sprintf("New state: %s - %s", st.Label, st.Message)
	if st.Content != "" {
		s.bot.Say(text, events.WithContent(st.Content))
	} else {
		s.bot.Say(text)
	}

	if len(st.Participants) > 0 {
		if inviter, ok := s.bot.(Inviter); ok {
			participants := append([]string(nil), st.Participants...)
			go s.invite(s.ctx, inviter, st.Label, participants)
		}
	}

	s.stepDone = nil
	if st.Machine == nil {
		if s.last(i) {
			s.finish()
		}
		return
	}

	if !st.Machine.Reset() {
		s.logger.Warn("step machine could not be reset", "step", st.Label)
	}
	s.stepDone = st.Machine.Start(s.ctx)
	go s.watch(s.generation, i, s.stepDone)
}

// invite runs outside s.mu; spaces may block on the network.
func (s *Steps) invite(ctx context.Context, inviter Inviter, label string, participants []string) {
	ctx, cancel := context.WithTimeout(ctx, InviteTimeout)
	defer cancel()

	if err := inviter.Invite(ctx, participants); err != nil {
		s.logger.Warn("inviting participants failed", "step", label, "error", err)
	}
}

// watch ends the process when the last step's machine completes.
func (s *Steps) watch(generation, index int, done <-chan struct{}) {
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation || !s.running {
		return
	}
	if s.last(index) {
		s.finish()
	}
}

func (s *Steps) last(i int) bool {
	return i == len(s.steps)-1 && !s.opts.Recycle
}

func (s *Steps) currentMachine() Machine {
	if s.index < 0 {
		return nil
	}
	return s.steps[s.index].Machine
}

// finish closes the process. Callers hold s.mu.
func (s *Steps) finish() {
	if !s.running {
		return
	}
	s.running = false
	s.logger.Info("process finished")
	close(s.done)
	if s.cancel != nil {
		s.cancel()
	}
}
