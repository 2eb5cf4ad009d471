// ABOUTME: Tests for the generic commands and the process, audit and todo commands
// ABOUTME: Todo commands run against a temporary SQLite database

package shell

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shellbot/internal/machines"
	"github.com/2389/shellbot/internal/store"
)

func TestHelp_ListsVisibleCommandsAlphabetically(t *testing.T) {
	agent := newFakeAgent()
	sh := New(agent, nil)
	require.NoError(t, sh.Load(NewHelp(sh), NewVersion("1.0"), NewEcho(), NewDefault(), NewInput()))

	sh.Do(context.Background(), "help")

	assert.Equal(t, "Available commands:\n"+
		"help - Show commands and usage\n"+
		"  usage: help <command>\n"+
		"input - Display all input\n"+
		"version - Display software version", agent.last())
}

func TestHelp_SingleCommand(t *testing.T) {
	agent := newFakeAgent()
	sh := New(agent, nil)
	require.NoError(t, sh.Load(NewHelp(sh), NewEcho()))

	sh.Do(context.Background(), "help ECHO")
	assert.Equal(t, "echo - Echo input string\nusage: echo <text>", agent.last())

	sh.Do(context.Background(), "help nothing")
	assert.Equal(t, "This command is unknown.", agent.last())
}

func TestInput_ShowsGatheredAnswers(t *testing.T) {
	sh, agent := newShell(t, NewInput())

	sh.Do(context.Background(), "input")
	assert.Equal(t, "There is nothing to display", agent.last())

	agent.Store("input.phone", "0123")
	agent.Store("input.name", "Alice")
	sh.Do(context.Background(), "input")
	assert.Equal(t, "Input:\nname - Alice\nphone - 0123", agent.last())
}

func TestVersion(t *testing.T) {
	sh, agent := newShell(t, NewVersion("2.3.4"))
	sh.Do(context.Background(), "version")
	assert.Equal(t, "shelly version 2.3.4", agent.last())
}

type fakeStepper struct {
	next, back error
	moves      []string
}

func (s *fakeStepper) Next(context.Context) error { s.moves = append(s.moves, "next"); return s.next }
func (s *fakeStepper) Back(context.Context) error { s.moves = append(s.moves, "back"); return s.back }
func (s *fakeStepper) Describe() string           { return "Current state: Triage - Collect details" }

func TestProcessCommands(t *testing.T) {
	stepper := &fakeStepper{}
	sh, agent := newShell(t, NewStep("step", stepper), NewStep("next", stepper), NewBack(stepper), NewState(stepper))

	sh.Do(context.Background(), "next")
	sh.Do(context.Background(), "step")
	assert.Empty(t, agent.texts(), "successful moves are announced by the process")

	stepper.next = machines.ErrBoundary
	sh.Do(context.Background(), "next")
	assert.Equal(t, "There is no next state", agent.last())

	stepper.back = machines.ErrStepBusy
	sh.Do(context.Background(), "back")
	assert.Equal(t, "The current state is still in progress, please wait. Current state: Triage - Collect details", agent.last())

	stepper.back = machines.ErrNotRunning
	sh.Do(context.Background(), "back")
	assert.Equal(t, "Process is not running", agent.last())

	stepper.back = errors.New("broken")
	sh.Do(context.Background(), "back")
	assert.Equal(t, "Sorry, I could not handle 'back'", agent.last())

	sh.Do(context.Background(), "state")
	assert.Equal(t, "Current state: Triage - Collect details", agent.last())

	assert.Equal(t, []string{"next", "next", "next", "back", "back", "back"}, stepper.moves)
}

func TestAudit(t *testing.T) {
	sh, agent := newShell(t, NewAudit())

	sh.Do(context.Background(), "audit")
	assert.Equal(t, "Chat interactions are not audited.", agent.last())

	sh.Do(context.Background(), "audit ON")
	assert.Equal(t, "Chat interactions are currently audited.", agent.last())
	assert.Equal(t, "on", agent.Recall("audit.switch"))

	sh.Do(context.Background(), "audit off")
	assert.Equal(t, "off", agent.Recall("audit.switch"))

	sh.Do(context.Background(), "audit maybe")
	assert.Equal(t, "usage: audit [on|off]", agent.last())
}

func TestTodoCommands(t *testing.T) {
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sh, agent := newShell(t, NewTodo(db), NewTodos(db), NewDone(db), NewDrop(db))
	agent.Store("space.id", "!room:example.org")
	ctx := context.Background()

	sh.Do(ctx, "todos")
	assert.Equal(t, "Nothing to do yet.", agent.last())

	sh.Do(ctx, "todo write the docs")
	sh.Do(ctx, "todo ship the release")
	sh.Do(ctx, "todo celebrate")
	assert.Equal(t, "Ok, this has been added to the todo list: celebrate", agent.last())

	sh.Do(ctx, "todos")
	assert.Equal(t, "On the todo list:\n#1 write the docs\n#2 ship the release\n#3 celebrate", agent.last())

	sh.Do(ctx, "done #2")
	assert.Equal(t, "Ok, this has been completed: ship the release", agent.last())

	sh.Do(ctx, "drop")
	assert.Equal(t, "Ok, this has been deleted: write the docs", agent.last())

	sh.Do(ctx, "done #5")
	assert.Equal(t, "There is no todo #5", agent.last())

	sh.Do(ctx, "drop #x")
	assert.Equal(t, "Invalid todo number '#x'", agent.last())

	sh.Do(ctx, "todos")
	assert.Equal(t, "On the todo list:\n#1 celebrate", agent.last())

	completed, err := db.ListTodos(ctx, "!room:example.org", store.TodoCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "ship the release", completed[0].Description)
}

func TestTodo_RequiresText(t *testing.T) {
	sh, agent := newShell(t, NewTodo(store.NewMockStore()))
	sh.Do(context.Background(), "todo")
	assert.Equal(t, "usage: todo <something to do>", agent.last())
}
