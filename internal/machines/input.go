// ABOUTME: Input machine asking one question and storing a validated answer
// ABOUTME: Supports masks, regular expressions, retries, re-prompt tips and idle timeouts

package machines

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/2389/shellbot/internal/events"
)

// Input states.
const (
	InputBegin   = "begin"
	InputWaiting = "waiting"
	InputDelayed = "delayed"
	InputEnd     = "end"
)

// Defaults applied by NewInput.
const (
	DefaultTip     = 20 * time.Second
	DefaultTimeout = 40 * time.Second
	DefaultRetries = 3
)

// Filter turns a reply into the value to store, or rejects it with ErrValidation.
type Filter func(text string) (string, error)

// InputOptions configures an Input machine.
type InputOptions struct {
	Question string
	Content  string

	// Mask accepts '9' for a digit and 'A' for a letter; other runes are
	// literal. The whole reply must match.
	Mask string

	// Regex keeps the first match found in the reply.
	Regex string

	// Filter overrides Mask and Regex when set.
	Filter Filter

	OnRetry  string
	OnAnswer string // "{}" is replaced by the accepted value
	OnCancel string
	OnTip    string

	Key string // Context key receiving the value

	Tip     time.Duration // delay before re-asking; negative disables
	Timeout time.Duration // idle time before giving up; negative waits forever
	Retries int           // invalid replies tolerated, the last one cancels

	Tick   time.Duration
	Logger *slog.Logger
}

// Input asks a question and waits for a valid answer on the fan queue.
type Input struct {
	*Base
	opts   InputOptions
	filter Filter

	mu       sync.Mutex
	attempts int
	answer   string
}

// NewInput builds an Input machine. An invalid Regex or an empty Question is an error.
func NewInput(bot Bot, opts InputOptions) (*Input, error) {
	if opts.Question == "" {
		return nil, fmt.Errorf("input machine needs a question")
	}
	if opts.Tip == 0 {
		opts.Tip = DefaultTip
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.OnRetry == "" {
		opts.OnRetry = "Invalid input, try again"
	}
	if opts.OnCancel == "" {
		opts.OnCancel = "Ok, forget about it"
	}
	if opts.OnTip == "" {
		opts.OnTip = opts.Question
	}

	filter := opts.Filter
	switch {
	case filter != nil:
	case opts.Regex != "":
		re, err := regexp.Compile(opts.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling input regex: %w", err)
		}
		filter = regexFilter(re)
	case opts.Mask != "":
		filter = regexFilter(maskPattern(opts.Mask))
	default:
		filter = func(text string) (string, error) { return text, nil }
	}

	m := &Input{
		Base:   NewBase(bot, opts.Logger),
		opts:   opts,
		filter: filter,
	}
	if opts.Tick > 0 {
		m.Tick = opts.Tick
	}
	m.OnReset(m.clear)

	if err := m.Build(
		[]string{InputBegin, InputWaiting, InputDelayed, InputEnd},
		m.transitions(),
		InputBegin,
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Input) transitions() []Transition {
	var ts []Transition
	ts = append(ts, Transition{
		Source: InputBegin, Target: InputWaiting, Event: EventStart,
		Action: func(any) { m.ask(m.opts.Question) },
	})

	for _, waiting := range []string{InputWaiting, InputDelayed} {
		ts = append(ts,
			Transition{
				Source: waiting, Target: waiting, Event: EventInput,
				Condition: func(arg any) bool { return textOf(arg) == "" },
			},
			Transition{
				Source: waiting, Target: InputEnd, Event: EventInput,
				Condition: m.accepts,
				Action:    m.store,
			},
			Transition{
				Source: waiting, Target: InputEnd, Event: EventInput,
				Condition: func(any) bool { return m.Attempts()+1 >= m.opts.Retries },
				Action:    func(any) { m.cancel(StatusCancelled) },
			},
			Transition{
				Source: waiting, Target: InputWaiting, Event: EventInput,
				Action: func(any) {
					m.mu.Lock()
					m.attempts++
					m.mu.Unlock()
					m.Bot().Say(m.opts.OnRetry)
				},
			},
			Transition{
				Source: waiting, Target: InputEnd, Event: EventTick,
				Condition: func(any) bool { return m.expired() },
				Action:    func(any) { m.cancel(StatusTimedOut) },
			},
		)
	}

	ts = append(ts, Transition{
		Source: InputWaiting, Target: InputDelayed, Event: EventTick,
		Condition: func(any) bool { return m.opts.Tip > 0 && m.Since() >= m.opts.Tip },
		Action:    func(any) { m.Bot().Say(m.opts.OnTip) },
	})
	return ts
}

// expired compares idle time with Timeout, counting from the question.
func (m *Input) expired() bool {
	if m.opts.Timeout <= 0 {
		return false
	}
	idle := m.Since()
	if m.State() == InputDelayed && m.opts.Tip > 0 {
		idle += m.opts.Tip
	}
	return idle >= m.opts.Timeout
}

func (m *Input) ask(question string) {
	if m.opts.Content != "" {
		m.Bot().Say(question, events.WithContent(m.opts.Content))
		return
	}
	m.Bot().Say(question)
}

func (m *Input) accepts(arg any) bool {
	_, err := m.filter(textOf(arg))
	return err == nil
}

func (m *Input) store(arg any) {
	value, err := m.filter(textOf(arg))
	if err != nil {
		return
	}

	m.mu.Lock()
	m.answer = value
	m.mu.Unlock()

	if m.opts.Key != "" {
		m.Bot().Context().Set(m.opts.Key, value)
	}
	if m.opts.OnAnswer != "" {
		m.Bot().Say(strings.ReplaceAll(m.opts.OnAnswer, "{}", value))
	}
	m.Finish(StatusCompleted)
}

func (m *Input) cancel(outcome Status) {
	m.Bot().Say(m.opts.OnCancel)
	m.Finish(outcome)
}

func (m *Input) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = 0
	m.answer = ""
}

// Attempts returns the number of rejected replies so far.
func (m *Input) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Answer returns the accepted value, or "".
func (m *Input) Answer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answer
}

func regexFilter(re *regexp.Regexp) Filter {
	return func(text string) (string, error) {
		match := re.FindString(text)
		if match == "" {
			return "", fmt.Errorf("%w: %q", ErrValidation, text)
		}
		return match, nil
	}
}

// maskPattern compiles a mask into an anchored expression.
func maskPattern(mask string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range mask {
		switch r {
		case '9':
			b.WriteString("[0-9]")
		case 'A':
			b.WriteString("[A-Za-z]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
