// Package dedupe remembers recently seen event identifiers so that a
// transport redelivering the same event does not trigger a command twice.
package dedupe
