// ABOUTME: Assembles a bot from configuration: storage, audit sink, machines and handlers
// ABOUTME: Shared by the serve and console commands

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/2389/shellbot/internal/bot"
	"github.com/2389/shellbot/internal/config"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/machines"
	"github.com/2389/shellbot/internal/spaces"
	"github.com/2389/shellbot/internal/store"
	"github.com/2389/shellbot/internal/updaters"
)

// storage groups the stores used by a bot and how to release them.
type storage struct {
	todos  store.TodoStore
	events store.EventStore
	close  func() error
}

// openStorage opens the SQLite database at path, or keeps everything in
// memory when path is empty.
func openStorage(path string) (*storage, error) {
	if path == "" {
		mem := store.NewMockStore()
		return &storage{todos: mem, events: mem, close: func() error { return nil }}, nil
	}

	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &storage{todos: db, events: db, close: db.Close}, nil
}

// buildUpdater picks the audit sink: a JSON lines file when one is
// configured, then the database, then fallback.
func buildUpdater(cfg config.AuditConfig, eventStore store.EventStore, fallback io.Writer) (updaters.Updater, func() error, error) {
	if cfg.File != "" {
		w, f, err := updaters.NewFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return w, f.Close, nil
	}
	if eventStore != nil {
		return updaters.NewSQLite(eventStore), func() error { return nil }, nil
	}
	return updaters.NewWriter(fallback), func() error { return nil }, nil
}

// buildMachine returns the machine described by cfg, or nil when the
// configuration has neither a process nor an intake.
func buildMachine(b machines.Bot, cfg *config.Config, logger *slog.Logger) (machines.Machine, error) {
	if len(cfg.Process.Steps) > 0 {
		steps := make([]machines.Step, 0, len(cfg.Process.Steps))
		for _, sc := range cfg.Process.Steps {
			m, err := chain(b, sc.Inputs, logger)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", sc.Label, err)
			}
			steps = append(steps, machines.Step{
				Label:        sc.Label,
				Message:      sc.Message,
				Content:      sc.Content,
				Participants: sc.Participants,
				Machine:      m,
			})
		}
		process, err := machines.NewSteps(b, steps, machines.StepsOptions{
			Recycle:         cfg.Process.Recycle,
			CancelOnAdvance: cfg.Process.CancelOnAdvance,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		return process, nil
	}

	if len(cfg.Intake) > 0 {
		return chain(b, cfg.Intake, logger)
	}
	return nil, nil
}

// chain turns a list of questions into one machine. A single question is
// returned as is; several run as a sequence.
func chain(b machines.Bot, inputs []config.InputConfig, logger *slog.Logger) (machines.Machine, error) {
	switch len(inputs) {
	case 0:
		return nil, nil
	case 1:
		return question(b, inputs[0], logger)
	}

	list := make([]machines.Machine, 0, len(inputs))
	for i, in := range inputs {
		m, err := question(b, in, logger)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i+1, err)
		}
		list = append(list, m)
	}
	return machines.NewSequence(list, logger), nil
}

func question(b machines.Bot, in config.InputConfig, logger *slog.Logger) (machines.Machine, error) {
	opts := machines.InputOptions{
		Question: in.Question,
		Key:      in.Key,
		Mask:     in.Mask,
		Regex:    in.Regex,
		OnAnswer: in.OnAnswer,
		OnRetry:  in.OnRetry,
		OnCancel: in.OnCancel,
		Retries:  in.Retries,
		Tip:      in.Tip,
		Timeout:  in.Timeout,
		Logger:   logger,
	}
	if len(in.Options) > 0 {
		return machines.NewMenu(b, in.Options, opts)
	}
	return machines.NewInput(b, opts)
}

// greeter welcomes people joining the space. "{}" in greeting is replaced
// by the newcomer's label, or id when there is no label.
func greeter(greeting string) bot.Handler {
	return func(_ context.Context, b *bot.Bot, event events.Event) {
		who := event.ActorLabel
		if who == "" {
			who = event.ActorID
		}
		b.RespondTo(event.SpaceID).Say(strings.ReplaceAll(greeting, "{}", who))
	}
}

// assembly is a configured bot plus the resources it holds.
type assembly struct {
	bot     *bot.Bot
	closers []func() error
}

func (a *assembly) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// assemble builds a bot from cfg. dbPath overrides cfg.Database.Path when
// the latter is empty; auditOut receives audit lines when neither a file
// nor a database is available.
func assemble(cfg *config.Config, space spaces.Space, dbPath string, auditOut io.Writer, logger *slog.Logger) (*assembly, error) {
	if cfg.Database.Path != "" {
		dbPath = cfg.Database.Path
	}

	a := &assembly{}
	st, err := openStorage(dbPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	var auditEvents store.EventStore
	if dbPath != "" {
		auditEvents = st.events
	}
	updater, closeUpdater, err := buildUpdater(cfg.Audit, auditEvents, auditOut)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeUpdater)

	b, err := bot.New(bot.Config{
		Settings:      cfg.Settings,
		Name:          cfg.Bot.Name,
		Version:       version,
		Space:         space,
		Todos:         st.todos,
		Updater:       updater,
		QueueCapacity: cfg.Bot.QueueCapacity,
		PollInterval:  cfg.Timing.PollInterval,
		NotReadyDelay: cfg.Timing.NotReadyDelay,
		FanWindow:     cfg.Timing.FanWindow,
		Logger:        logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("creating bot: %w", err)
	}
	if err := cfg.Seed(b.Context()); err != nil {
		_ = a.Close()
		return nil, err
	}

	m, err := buildMachine(b, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("building machine: %w", err)
	}
	if m != nil {
		if err := b.SetMachine(m); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	if cfg.Bot.Greeting != "" {
		b.Register(events.KindJoin, greeter(cfg.Bot.Greeting))
	}

	a.bot = b
	return a, nil
}
