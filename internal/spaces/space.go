// ABOUTME: Space contract used by the speaker to deliver outbound payloads
// ABOUTME: Declares the not-ready error reported before a room is bound

package spaces

import (
	"context"
	"errors"

	"github.com/2389/shellbot/internal/events"
)

// ErrNotReady is returned by Post while no room is bound.
var ErrNotReady = errors.New("space is not ready")

// Space delivers payloads to a chat room.
type Space interface {
	Post(ctx context.Context, payload events.Payload) error
	Ready() bool
}
