// ABOUTME: Audit sinks receiving parsed inbound events
// ABOUTME: Writer emits JSON lines; SQLite saves records through the event store

package updaters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/store"
)

// Updater receives audited events.
type Updater interface {
	Put(ctx context.Context, event events.Event) error
}

// Writer writes one JSON document per line.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a Writer on out, or stdout if out is nil.
func NewWriter(out io.Writer) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{out: out}
}

// NewFile creates a Writer appending to path. The caller closes the file.
func NewFile(path string) (*Writer, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit file: %w", err)
	}
	return NewWriter(f), f, nil
}

func (w *Writer) Put(_ context.Context, event events.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.out, "%s\n", line); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// SQLite saves events to the events table.
type SQLite struct {
	store store.EventStore
}

// NewSQLite creates an updater on s.
func NewSQLite(s store.EventStore) *SQLite {
	return &SQLite{store: s}
}

func (u *SQLite) Put(ctx context.Context, event events.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return u.store.SaveEvent(ctx, &store.EventRecord{
		ID:         event.ID,
		Kind:       string(event.Kind),
		ActorID:    event.ActorID,
		ActorLabel: event.ActorLabel,
		SpaceID:    event.SpaceID,
		Text:       event.Text,
		Raw:        string(raw),
		CreatedAt:  event.Stamp,
	})
}
