// ABOUTME: Todo list persistence for SQLiteStore
// ABOUTME: CRUD over the todos table, listed oldest first per space

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CreateTodo creates a new todo.
func (s *SQLiteStore) CreateTodo(ctx context.Context, todo *Todo) error {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, space_id, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, todo.ID, todo.SpaceID, todo.Description, todo.Status,
		todo.CreatedAt.UTC().Format(timeLayout), todo.UpdatedAt.Format(timeLayout))

	return err
}

// GetTodo retrieves a todo by ID.
func (s *SQLiteStore) GetTodo(ctx context.Context, id string) (*Todo, error) {
	var t Todo
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, space_id, description, status, created_at, updated_at
		FROM todos WHERE id = ?
	`, id).Scan(&t.ID, &t.SpaceID, &t.Description, &t.Status, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	t.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &t, nil
}

// ListTodos lists todos of a space, optionally filtered by status.
func (s *SQLiteStore) ListTodos(ctx context.Context, spaceID, status string) ([]*Todo, error) {
	query := `SELECT id, space_id, description, status, created_at, updated_at FROM todos WHERE space_id = ?`
	args := []any{spaceID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var todos []*Todo
	for rows.Next() {
		var t Todo
		var createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.SpaceID, &t.Description, &t.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		t.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

// UpdateTodo updates description and status of an existing todo.
func (s *SQLiteStore) UpdateTodo(ctx context.Context, todo *Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE todos SET description = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, todo.Description, todo.Status, todo.UpdatedAt.Format(timeLayout), todo.ID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTodo deletes a todo by ID.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
