// ABOUTME: Commands driving a Steps process: step/next, back and state
// ABOUTME: Translate boundary and busy conditions into chat replies

package shell

import (
	"context"
	"errors"

	"github.com/2389/shellbot/internal/machines"
)

// Stepper is a process moved by chat commands.
type Stepper interface {
	Next(ctx context.Context) error
	Back(ctx context.Context) error
	Describe() string
}

// Step advances the process. It is registered as both "step" and "next".
type Step struct {
	Base
	process Stepper
}

// NewStep creates the forward command under keyword.
func NewStep(keyword string, process Stepper) *Step {
	return &Step{
		Base:    Base{Key: keyword, Info: "Move process to next state"},
		process: process,
	}
}

func (c *Step) Execute(ctx context.Context, agent Agent, _ string) error {
	return reportMove(agent, c.process.Next(ctx), c.process, "There is no next state")
}

// Back moves the process to the previous step.
type Back struct {
	Base
	process Stepper
}

// NewBack creates the back command.
func NewBack(process Stepper) *Back {
	return &Back{
		Base:    Base{Key: "back", Info: "Move process to previous state"},
		process: process,
	}
}

func (c *Back) Execute(ctx context.Context, agent Agent, _ string) error {
	return reportMove(agent, c.process.Back(ctx), c.process, "There is no previous state")
}

// State describes the current step.
type State struct {
	Base
	process Stepper
}

// NewState creates the state command.
func NewState(process Stepper) *State {
	return &State{
		Base:    Base{Key: "state", Info: "Display current state of the process"},
		process: process,
	}
}

func (c *State) Execute(_ context.Context, agent Agent, _ string) error {
	agent.Say(c.process.Describe())
	return nil
}

// reportMove turns expected refusals into replies and passes other errors on.
// A successful move is announced by the process itself.
func reportMove(agent Agent, err error, process Stepper, boundary string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, machines.ErrBoundary):
		agent.Say(boundary)
	case errors.Is(err, machines.ErrStepBusy):
		agent.Say("The current state is still in progress, please wait. " + process.Describe())
	case errors.Is(err, machines.ErrNotRunning):
		agent.Say("Process is not running")
	default:
		return err
	}
	return nil
}
