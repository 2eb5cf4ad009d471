// ABOUTME: In-memory space for the console mode and tests
// ABOUTME: Records posts and optionally prints them to a writer

package spaces

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/2389/shellbot/internal/events"
)

// Local is a space living in the process.
type Local struct {
	mu    sync.Mutex
	id    string
	out   io.Writer
	posts []events.Payload
}

// NewLocal creates an unbound local space. out may be nil.
func NewLocal(out io.Writer) *Local {
	return &Local{out: out}
}

// Bind makes the space ready under id.
func (l *Local) Bind(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.id = id
}

// ID returns the bound id, or "".
func (l *Local) ID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}

// Ready reports whether the space is bound.
func (l *Local) Ready() bool {
	return l.ID() != ""
}

// Post records payload and writes it out.
func (l *Local) Post(_ context.Context, payload events.Payload) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.id == "" {
		return ErrNotReady
	}
	l.posts = append(l.posts, payload)

	if l.out != nil {
		if payload.Text != "" {
			fmt.Fprintln(l.out, payload.Text)
		}
		if payload.Content != "" {
			fmt.Fprintln(l.out, payload.Content)
		}
		if payload.File != "" {
			fmt.Fprintf(l.out, "[file] %s\n", payload.File)
		}
	}
	return nil
}

// Posts returns a copy of every payload posted so far.
func (l *Local) Posts() []events.Payload {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Payload(nil), l.posts...)
}
