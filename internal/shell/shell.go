// ABOUTME: Keyword dispatcher routing command lines to registered commands
// ABOUTME: Validates registrations up front and isolates failures per invocation

package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/events"
)

// Reserved keywords.
const (
	KeywordDefault = "*default"
	KeywordEmpty   = "*empty"
	KeywordHelp    = "help"
)

// ErrCommandCollision indicates a keyword is already registered.
var ErrCommandCollision = errors.New("command keyword collision")

// ErrInvalidKeyword indicates a keyword that cannot be typed as a single token.
var ErrInvalidKeyword = errors.New("invalid command keyword")

// Sayer emits outbound payloads.
type Sayer interface {
	Say(text string, opts ...events.Option)
}

// Agent is the bot surface available to commands.
type Agent interface {
	Sayer

	// Recall returns the value stored under key, or nil.
	Recall(key string) any

	// Store saves value under key in the shared context.
	Store(key string, value any)

	// RespondTo returns a Sayer whose payloads target spaceID.
	RespondTo(spaceID string) Sayer

	// Context returns the shared coordination store.
	Context() *botctx.Context
}

// Command handles one keyword.
type Command interface {
	Keyword() string
	Information() string
	Usage() string
	IsHidden() bool
	Execute(ctx context.Context, agent Agent, arguments string) error
}

// Base provides the descriptive half of Command for embedding.
type Base struct {
	Key    string
	Info   string
	Syntax string
	Hidden bool
}

func (b Base) Keyword() string     { return b.Key }
func (b Base) Information() string { return b.Info }
func (b Base) IsHidden() bool      { return b.Hidden }

// Usage returns the syntax line, defaulting to the bare keyword.
func (b Base) Usage() string {
	if b.Syntax == "" {
		return b.Key
	}
	return b.Syntax
}

// Shell is the command registry and dispatcher.
type Shell struct {
	mu       sync.RWMutex
	commands map[string]Command
	agent    Agent
	logger   *slog.Logger
}

// New creates an empty shell that executes commands on behalf of agent.
func New(agent Agent, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		commands: make(map[string]Command),
		agent:    agent,
		logger:   logger.With("component", "shell"),
	}
}

// Load registers commands. Nothing is registered if any keyword is invalid
// or already taken.
func (s *Shell) Load(cmds ...Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]Command, len(cmds))
	for _, cmd := range cmds {
		if cmd == nil {
			return fmt.Errorf("%w: nil command", ErrInvalidKeyword)
		}
		key := strings.ToLower(cmd.Keyword())
		if key == "" || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidKeyword, cmd.Keyword())
		}
		if _, exists := s.commands[key]; exists {
			return fmt.Errorf("%w: %q", ErrCommandCollision, key)
		}
		if _, exists := batch[key]; exists {
			return fmt.Errorf("%w: %q", ErrCommandCollision, key)
		}
		batch[key] = cmd
	}

	for key, cmd := range batch {
		s.commands[key] = cmd
	}

	s.logger.Debug("commands loaded", "count", len(batch), "total", len(s.commands))
	return nil
}

// Command returns the command registered for keyword, or nil.
func (s *Shell) Command(keyword string) Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commands[strings.ToLower(keyword)]
}

// Keywords returns every registered keyword in alphabetical order.
func (s *Shell) Keywords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.commands))
	for k := range s.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Do executes one command line.
func (s *Shell) Do(ctx context.Context, line string) {
	line = strings.TrimSpace(line)

	verb, arguments := splitLine(line)
	cmd := s.Command(verb)

	switch {
	case line == "":
		verb = KeywordEmpty
		if cmd = s.Command(KeywordEmpty); cmd == nil {
			verb = KeywordHelp
			cmd = s.Command(KeywordHelp)
		}
	case cmd == nil:
		cmd = s.Command(KeywordDefault)
		arguments = line
	}

	if cmd == nil {
		s.logger.Info("no command to handle line", "line", line)
		return
	}

	s.execute(ctx, cmd, verb, arguments)
}

func (s *Shell) execute(ctx context.Context, cmd Command, verb, arguments string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command panicked", "keyword", cmd.Keyword(), "panic", r)
			s.agent.Say(fmt.Sprintf("Sorry, I could not handle '%s'", verb))
		}
	}()

	s.logger.Debug("executing command", "keyword", cmd.Keyword(), "arguments", arguments)

	if err := cmd.Execute(ctx, s.agent, arguments); err != nil {
		s.logger.Error("command failed", "keyword", cmd.Keyword(), "error", err)
		s.agent.Say(fmt.Sprintf("Sorry, I could not handle '%s'", verb))
	}
}

// splitLine separates the keyword from its arguments.
func splitLine(line string) (string, string) {
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return strings.ToLower(line), ""
	}
	return strings.ToLower(line[:idx]), strings.TrimSpace(line[idx:])
}
