// ABOUTME: Todo list commands backed by the store package
// ABOUTME: todo adds, todos lists, done completes and drop deletes numbered items

package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/store"
)

// DefaultSpaceID names the todo list used when no space is bound.
const DefaultSpaceID = "local"

func spaceOf(agent Agent) string {
	return agent.Context().GetString(botctx.KeySpaceID, DefaultSpaceID)
}

// Todo adds an item.
type Todo struct {
	Base
	todos store.TodoStore
}

// NewTodo creates the todo command.
func NewTodo(todos store.TodoStore) *Todo {
	return &Todo{Base: Base{Key: "todo", Info: "Append an item to the todo list", Syntax: "todo <something to do>"}, todos: todos}
}

func (c *Todo) Execute(ctx context.Context, agent Agent, arguments string) error {
	if arguments == "" {
		agent.Say(fmt.Sprintf("usage: %s", c.Usage()))
		return nil
	}
	if err := c.todos.CreateTodo(ctx, &store.Todo{SpaceID: spaceOf(agent), Description: arguments}); err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	agent.Say(fmt.Sprintf("Ok, this has been added to the todo list: %s", arguments))
	return nil
}

// Todos lists pending items.
type Todos struct {
	Base
	todos store.TodoStore
}

// NewTodos creates the todos command.
func NewTodos(todos store.TodoStore) *Todos {
	return &Todos{Base: Base{Key: "todos", Info: "List things to do"}, todos: todos}
}

func (c *Todos) Execute(ctx context.Context, agent Agent, _ string) error {
	pending, err := c.todos.ListTodos(ctx, spaceOf(agent), store.TodoPending)
	if err != nil {
		return fmt.Errorf("listing todos: %w", err)
	}
	if len(pending) == 0 {
		agent.Say("Nothing to do yet.")
		return nil
	}

	lines := []string{"On the todo list:"}
	for i, todo := range pending {
		lines = append(lines, fmt.Sprintf("#%d %s", i+1, todo.Description))
	}
	agent.Say(strings.Join(lines, "\n"))
	return nil
}

// Done completes an item.
type Done struct {
	Base
	todos store.TodoStore
}

// NewDone creates the done command.
func NewDone(todos store.TodoStore) *Done {
	return &Done{Base: Base{Key: "done", Info: "Mark one item as done", Syntax: "done [#<n>]"}, todos: todos}
}

func (c *Done) Execute(ctx context.Context, agent Agent, arguments string) error {
	todo, ok, err := pick(ctx, agent, c.todos, arguments)
	if err != nil || !ok {
		return err
	}
	todo.Status = store.TodoCompleted
	if err := c.todos.UpdateTodo(ctx, todo); err != nil {
		return fmt.Errorf("completing todo: %w", err)
	}
	agent.Say(fmt.Sprintf("Ok, this has been completed: %s", todo.Description))
	return nil
}

// Drop deletes an item.
type Drop struct {
	Base
	todos store.TodoStore
}

// NewDrop creates the drop command.
func NewDrop(todos store.TodoStore) *Drop {
	return &Drop{Base: Base{Key: "drop", Info: "Delete an item from the todo list", Syntax: "drop [#<n>]"}, todos: todos}
}

func (c *Drop) Execute(ctx context.Context, agent Agent, arguments string) error {
	todo, ok, err := pick(ctx, agent, c.todos, arguments)
	if err != nil || !ok {
		return err
	}
	if err := c.todos.DeleteTodo(ctx, todo.ID); err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	agent.Say(fmt.Sprintf("Ok, this has been deleted: %s", todo.Description))
	return nil
}

// pick resolves "#n" (default #1) against the pending list. ok is false
// when the user has already been told why nothing was picked.
func pick(ctx context.Context, agent Agent, todos store.TodoStore, arguments string) (*store.Todo, bool, error) {
	index := 1
	if arguments != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(arguments, "#"))
		if err != nil || n < 1 {
			agent.Say(fmt.Sprintf("Invalid todo number '%s'", arguments))
			return nil, false, nil
		}
		index = n
	}

	pending, err := todos.ListTodos(ctx, spaceOf(agent), store.TodoPending)
	if err != nil {
		return nil, false, fmt.Errorf("listing todos: %w", err)
	}
	if len(pending) == 0 {
		agent.Say("Nothing to do yet.")
		return nil, false, nil
	}
	if index > len(pending) {
		agent.Say(fmt.Sprintf("There is no todo #%d", index))
		return nil, false, nil
	}
	return pending[index-1], true, nil
}
