// ABOUTME: Sequence machine running sub-machines back to back
// ABOUTME: Outcomes of earlier machines never block later ones; Stop halts the chain

package machines

import (
	"context"
	"log/slog"
	"sync"
)

// Sequence runs machines strictly in order.
type Sequence struct {
	machines []Machine
	logger   *slog.Logger

	mu      sync.Mutex
	current Machine
	running bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSequence creates a sequence over machines.
func NewSequence(machines []Machine, logger *slog.Logger) *Sequence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequence{
		machines: machines,
		logger:   logger.With("component", "sequence"),
	}
}

// Reset resets every sub-machine. It fails while running.
func (s *Sequence) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	for _, m := range s.machines {
		if !m.Reset() {
			return false
		}
	}
	s.stopped = false
	s.current = nil
	s.done = nil
	return true
}

// Start runs the sequence on its own goroutine.
func (s *Sequence) Start(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	if s.done != nil {
		done := s.done
		s.mu.Unlock()
		return done
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.run(runCtx)
	}()
	return done
}

// Run executes the sequence and returns once the last machine is done
// or the sequence is stopped.
func (s *Sequence) Run(ctx context.Context) {
	<-s.Start(ctx)
}

func (s *Sequence) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.current = nil
		cancel := s.cancel
		s.mu.Unlock()
		cancel()
	}()

	for i, m := range s.machines {
		s.mu.Lock()
		if s.stopped || ctx.Err() != nil {
			s.mu.Unlock()
			s.logger.Debug("sequence stopped", "remaining", len(s.machines)-i)
			return
		}
		s.current = m
		s.mu.Unlock()

		s.logger.Debug("starting machine", "index", i)
		<-m.Start(ctx)
	}
}

// Stop cancels the active machine and prevents later ones from starting.
func (s *Sequence) Stop() {
	s.mu.Lock()
	s.stopped = true
	current := s.current
	cancel := s.cancel
	s.mu.Unlock()

	if current != nil {
		current.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// IsRunning reports whether the chain still has a sub-machine active or pending.
func (s *Sequence) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Machines returns the sub-machines in order.
func (s *Sequence) Machines() []Machine {
	return append([]Machine(nil), s.machines...)
}
