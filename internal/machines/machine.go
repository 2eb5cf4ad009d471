// ABOUTME: Machine contract shared by every conversation machine
// ABOUTME: Defines lifecycle statuses, sentinel errors and the bot surface machines use

package machines

import (
	"context"
	"errors"
	"strings"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
)

// Status is the lifecycle position of a machine.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusTimedOut  Status = "timed-out"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusTimedOut
}

var (
	// ErrValidation is returned by input filters rejecting a reply.
	ErrValidation = errors.New("input does not match")

	// ErrBoundary is returned when moving past the first or last step.
	ErrBoundary = errors.New("no step in that direction")

	// ErrStepBusy is returned when a step's machine is still running.
	ErrStepBusy = errors.New("current step is still running")

	// ErrNotRunning is returned when stepping a process that has not started.
	ErrNotRunning = errors.New("process is not running")
)

// Machine is one multi-turn interaction.
type Machine interface {
	// Reset restores the initial state. It fails while running.
	Reset() bool

	// Start launches the machine. The returned channel closes once it
	// reaches a terminal status.
	Start(ctx context.Context) <-chan struct{}

	// Stop requests cooperative cancellation.
	Stop()

	IsRunning() bool
}

// Bot is what machines need from the agent.
type Bot interface {
	Say(text string, opts ...events.Option)
	Context() *botctx.Context
	Fan() *queue.Queue[any]
}

// Inviter is implemented by bots able to add participants to the space.
type Inviter interface {
	Invite(ctx context.Context, participants []string) error
}

// textOf extracts the reply text from a fan item.
func textOf(item any) string {
	switch v := item.(type) {
	case string:
		return strings.TrimSpace(v)
	case events.Event:
		return strings.TrimSpace(v.Text)
	case *events.Event:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(v.Text)
	default:
		return ""
	}
}
