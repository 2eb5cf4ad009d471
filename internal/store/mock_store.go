// ABOUTME: In-memory implementation of EventStore and TodoStore
// ABOUTME: Used by tests and by the console mode when no database is configured

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore keeps events and todos in memory
type MockStore struct {
	mu     sync.RWMutex
	events []*EventRecord
	todos  map[string]*Todo
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{
		todos: make(map[string]*Todo),
	}
}

// SaveEvent appends an event record
func (m *MockStore) SaveEvent(ctx context.Context, rec *EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	cp := *rec
	m.events = append(m.events, &cp)
	return nil
}

// ListEvents returns events newest first
func (m *MockStore) ListEvents(ctx context.Context, spaceID string, limit int) ([]*EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = normalizeLimit(limit)
	var out []*EventRecord
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.events[i]
		if spaceID != "" && e.SpaceID != spaceID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// CreateTodo stores a new todo
func (m *MockStore) CreateTodo(ctx context.Context, todo *Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	todo.UpdatedAt = now
	if todo.Status == "" {
		todo.Status = TodoPending
	}
	cp := *todo
	m.todos[todo.ID] = &cp
	return nil
}

// GetTodo returns a copy of the todo with the given ID
func (m *MockStore) GetTodo(ctx context.Context, id string) (*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ListTodos lists a space's todos oldest first
func (m *MockStore) ListTodos(ctx context.Context, spaceID, status string) ([]*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Todo
	for _, t := range m.todos {
		if t.SpaceID != spaceID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateTodo replaces description and status
func (m *MockStore) UpdateTodo(ctx context.Context, todo *Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[todo.ID]
	if !ok {
		return ErrNotFound
	}
	todo.UpdatedAt = time.Now().UTC()
	t.Description = todo.Description
	t.Status = todo.Status
	t.UpdatedAt = todo.UpdatedAt
	return nil
}

// DeleteTodo removes a todo
func (m *MockStore) DeleteTodo(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.todos[id]; !ok {
		return ErrNotFound
	}
	delete(m.todos, id)
	return nil
}

// Compile-time interface checks
var (
	_ EventStore = (*MockStore)(nil)
	_ TodoStore  = (*MockStore)(nil)
	_ EventStore = (*SQLiteStore)(nil)
	_ TodoStore  = (*SQLiteStore)(nil)
)
