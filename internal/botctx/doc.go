// Package botctx provides the shared coordination store used by every worker
// of a running bot.
//
// # Overview
//
// A Context maps dotted string keys ("general.switch", "listener.counter",
// "input.order_id") to plain values. The listener, the speaker, the auditor
// and every running machine receive the same *Context at construction and
// communicate through it instead of holding references to each other.
//
//	store := botctx.New(map[string]any{
//	    "bot": map[string]any{"name": "shelly"},
//	})
//	store.Get("bot.name", "")            // "shelly"
//	store.Increment("listener.counter", 1)
//
// # Shutdown switch
//
// The key "general.switch" is the cooperative shutdown signal. Workers poll
// it between bounded waits and leave their loop once it reads "off".
//
// # Configuration checks
//
// Check verifies that a setting is present at startup, applying a default or
// resolving a "$NAME" reference against the process environment. Failures
// are reported as *ConfigurationError and are fatal for the caller.
package botctx
