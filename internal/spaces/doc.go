// Package spaces connects the bot to the places where people chat.
//
// A Space accepts outbound payloads. Until it is bound to a concrete room it
// reports ErrNotReady, which the speaker treats as "try the same item again
// later". Implementations:
//
//   - Local keeps posts in memory and can echo them to a writer. It backs the
//     console mode and tests.
//   - Matrix talks to a Matrix homeserver with mautrix. Its Run method syncs
//     the account and pushes inbound records onto the ears queue.
package spaces
