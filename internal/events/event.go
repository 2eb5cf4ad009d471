// ABOUTME: Inbound event model and parser for raw transport records
// ABOUTME: Normalises maps, JSON and Event values; rejects malformed records with ErrMalformed

package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind discriminates inbound events.
type Kind string

const (
	KindMessage    Kind = "message"
	KindAttachment Kind = "attachment"
	KindJoin       Kind = "join"
	KindLeave      Kind = "leave"
)

// ErrMalformed marks an inbound item that does not have the shape of an event.
var ErrMalformed = errors.New("malformed event")

// EndOfStream is pushed onto the inbound queue to stop the listener.
var EndOfStream = errors.New("end of stream")

// Event is one inbound occurrence in a chat space.
type Event struct {
	Kind         Kind      `json:"type"`
	ID           string    `json:"id,omitempty"`
	ActorID      string    `json:"actor_id"`
	ActorLabel   string    `json:"actor_label,omitempty"`
	SpaceID      string    `json:"space_id,omitempty"`
	Text         string    `json:"text,omitempty"`
	Content      string    `json:"content,omitempty"`
	URL          string    `json:"url,omitempty"`
	MentionedIDs []string  `json:"mentioned_ids,omitempty"`
	Stamp        time.Time `json:"stamp,omitempty"`
}

// String renders the event on a single line, as written by audit sinks.
func (e Event) String() string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("%s from %s", e.Kind, e.ActorID)
	}
	return string(data)
}

// Parse converts a raw inbound item into an Event.
func Parse(item any) (Event, error) {
	var e Event

	switch v := item.(type) {
	case Event:
		e = v
	case *Event:
		if v == nil {
			return Event{}, fmt.Errorf("%w: nil event", ErrMalformed)
		}
		e = *v
	case map[string]any:
		e = fromMap(v)
	case string:
		if err := decodeJSON([]byte(v), &e); err != nil {
			return Event{}, err
		}
	case []byte:
		if err := decodeJSON(v, &e); err != nil {
			return Event{}, err
		}
	default:
		return Event{}, fmt.Errorf("%w: unsupported item type %T", ErrMalformed, item)
	}

	if e.Kind == "" {
		e.Kind = KindMessage
	}
	if err := e.validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

func decodeJSON(data []byte, e *Event) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	*e = fromMap(raw)
	return nil
}

func (e Event) validate() error {
	switch e.Kind {
	case KindMessage, KindAttachment, KindJoin, KindLeave:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, e.Kind)
	}
	if e.ActorID == "" {
		return fmt.Errorf("%w: missing actor_id", ErrMalformed)
	}
	if e.Kind == KindMessage && e.Text == "" && e.Content == "" {
		return fmt.Errorf("%w: message without text", ErrMalformed)
	}
	if e.Kind == KindAttachment && e.URL == "" {
		return fmt.Errorf("%w: attachment without url", ErrMalformed)
	}
	return nil
}

func fromMap(m map[string]any) Event {
	e := Event{
		Kind:       Kind(str(m["type"])),
		ID:         str(m["id"]),
		ActorID:    str(m["actor_id"]),
		ActorLabel: str(m["actor_label"]),
		SpaceID:    str(m["space_id"]),
		Text:       str(m["text"]),
		Content:    str(m["content"]),
		URL:        str(m["url"]),
	}

	switch ids := m["mentioned_ids"].(type) {
	case []string:
		e.MentionedIDs = append(e.MentionedIDs, ids...)
	case []any:
		for _, id := range ids {
			if s := str(id); s != "" {
				e.MentionedIDs = append(e.MentionedIDs, s)
			}
		}
	}

	switch stamp := m["stamp"].(type) {
	case time.Time:
		e.Stamp = stamp
	case string:
		e.Stamp, _ = time.Parse(time.RFC3339Nano, stamp)
	}
	return e
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimRight(s, "\r\n")
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
