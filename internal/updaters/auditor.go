// ABOUTME: Auditor worker draining the listener's tee queue
// ABOUTME: Forwards parsed events to an Updater while auditing is switched on

package updaters

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
)

// KeyAuditorCounter counts items the auditor pulled.
const KeyAuditorCounter = "auditor.counter"

// DefaultPollInterval bounds each wait on the tee queue.
const DefaultPollInterval = 50 * time.Millisecond

// Auditor is the audit worker.
type Auditor struct {
	botCtx  *botctx.Context
	tee     *queue.Queue[any]
	updater Updater
	poll    time.Duration
	logger  *slog.Logger
}

// NewAuditor creates an auditor feeding updater.
func NewAuditor(botCtx *botctx.Context, tee *queue.Queue[any], updater Updater, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		botCtx:  botCtx,
		tee:     tee,
		updater: updater,
		poll:    DefaultPollInterval,
		logger:  logger.With("component", "auditor"),
	}
}

// Run drains the tee queue until an error sentinel, the switch or ctx stops it.
func (a *Auditor) Run(ctx context.Context) error {
	a.botCtx.Set(KeyAuditorCounter, 0)

	for a.botCtx.IsOn() {
		item, err := a.tee.Get(ctx, a.poll)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			return nil
		}
		if _, ok := item.(error); ok {
			return nil
		}

		a.botCtx.Increment(KeyAuditorCounter, 1)
		if a.botCtx.GetString(botctx.KeyAuditSwitch, botctx.SwitchOff) != botctx.SwitchOn {
			continue
		}

		event, err := events.Parse(item)
		if err != nil {
			a.logger.Debug("not auditing malformed item", "error", err)
			continue
		}
		if err := a.updater.Put(ctx, event); err != nil {
			a.logger.Error("audit update failed", "event_id", event.ID, "error", err)
		}
	}
	return nil
}
