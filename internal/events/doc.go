// Package events defines the records that travel through the bot's queues.
//
// Inbound records are produced by a transport and parsed into an Event whose
// Kind is one of message, attachment, join or leave. Outbound records are
// Payloads produced by commands and machines and consumed by the speaker.
//
// # Wire records
//
// Transports push either an Event value or a raw map with snake_case keys:
//
//	{"type": "message", "id": "...", "actor_id": "@alice:example.org",
//	 "actor_label": "Alice", "space_id": "!room:example.org",
//	 "text": "shelly help", "mentioned_ids": ["@shelly:example.org"]}
//
// A JSON encoding of the same map is also accepted. Records that do not have
// this shape fail Parse with an error wrapping ErrMalformed.
//
// # Sentinels
//
// EndOfStream pushed onto the inbound queue stops the listener. A nil item on
// the outbound queue stops the speaker.
package events
