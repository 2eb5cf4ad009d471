// ABOUTME: Store interfaces and record types for bot persistence
// ABOUTME: Defines audited event records and todo items

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Todo statuses
const (
	TodoPending   = "pending"
	TodoCompleted = "completed"
)

// EventRecord is one audited inbound event
type EventRecord struct {
	ID         string
	Kind       string
	ActorID    string
	ActorLabel string
	SpaceID    string
	Text       string
	Raw        string // JSON rendering of the full event
	CreatedAt  time.Time
}

// Todo is one item of a space's todo list
type Todo struct {
	ID          string
	SpaceID     string
	Description string
	Status      string // pending, completed
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventStore persists audited events
type EventStore interface {
	SaveEvent(ctx context.Context, rec *EventRecord) error
	ListEvents(ctx context.Context, spaceID string, limit int) ([]*EventRecord, error)
}

// TodoStore persists todo items. Lists are ordered oldest first so that
// item numbers shown to users stay stable as items are added.
type TodoStore interface {
	CreateTodo(ctx context.Context, todo *Todo) error
	GetTodo(ctx context.Context, id string) (*Todo, error)
	ListTodos(ctx context.Context, spaceID, status string) ([]*Todo, error)
	UpdateTodo(ctx context.Context, todo *Todo) error
	DeleteTodo(ctx context.Context, id string) error
}

// timeLayout is RFC3339 with fixed-width nanoseconds so that stored
// timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
