// ABOUTME: Outbound payload model produced by commands and machines
// ABOUTME: Functional options build payloads; ToPayload normalises queue items

package events

import (
	"fmt"
)

// Payload is one outbound reply.
type Payload struct {
	Text    string
	Content string // markdown
	File    string // path or URL
	SpaceID string // overrides the bound space when set
}

// String renders the payload for logs.
func (p Payload) String() string {
	return fmt.Sprintf("text=%q content=%q file=%q space_id=%q", p.Text, p.Content, p.File, p.SpaceID)
}

// Option adjusts a Payload under construction.
type Option func(*Payload)

// WithContent attaches rich (markdown) content.
func WithContent(content string) Option {
	return func(p *Payload) { p.Content = content }
}

// WithFile attaches a file path or URL.
func WithFile(file string) Option {
	return func(p *Payload) { p.File = file }
}

// ToSpace sends the payload to spaceID instead of the bound space.
func ToSpace(spaceID string) Option {
	return func(p *Payload) { p.SpaceID = spaceID }
}

// NewPayload builds a payload from text and options.
func NewPayload(text string, opts ...Option) Payload {
	p := Payload{Text: text}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ToPayload converts an outbound queue item. Plain strings become text-only payloads.
func ToPayload(item any) (Payload, error) {
	switch v := item.(type) {
	case string:
		return Payload{Text: v}, nil
	case Payload:
		return v, nil
	case *Payload:
		if v == nil {
			return Payload{}, fmt.Errorf("%w: nil payload", ErrMalformed)
		}
		return *v, nil
	default:
		return Payload{}, fmt.Errorf("%w: unsupported outbound item %T", ErrMalformed, item)
	}
}
