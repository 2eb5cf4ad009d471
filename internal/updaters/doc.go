// Package updaters records inbound chat events for audit.
//
// The listener copies every raw inbound item onto a tee queue. The Auditor
// drains that queue and, while audit.switch is on, hands each parsed event to
// an Updater:
//
//   - Writer prints one JSON line per event to any io.Writer (stdout by default)
//   - NewFile appends those lines to a file
//   - SQLite saves events through store.EventStore
package updaters
