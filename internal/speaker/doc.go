// Package speaker drains the outbound queue into a space.
//
// Items are strings or events.Payload values; nil ends the stream. A space
// that is not ready yet keeps the current item: the speaker waits
// NotReadyDelay and retries it, so order is preserved end to end.
package speaker
