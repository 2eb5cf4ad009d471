// Package bot assembles the conversational agent.
//
// A Bot owns the shared Context and four queues:
//
//   - ears: inbound records pushed by the space
//   - mouth: outbound payloads drained by the speaker
//   - fan: chat lines routed to a machine waiting for input
//   - tee: raw inbound copies for the auditor (only with an Updater)
//
// Run starts the listener, the speaker, the auditor, the space sync loop and
// the configured machine under one errgroup, and returns once they have all
// stopped. Stop turns general.switch off and pushes a sentinel onto every
// queue so that blocked workers wake up immediately.
//
// Commands and machines talk back through the Bot itself: Say, RespondTo,
// Recall and Store.
package bot
