// Package listener drains the inbound queue and feeds the command shell.
//
// For each item pulled from the ears queue the Listener:
//
//  1. stops on an error value (the end-of-stream sentinel)
//  2. increments listener.counter
//  3. copies the raw item onto the tee queue, if any
//  4. parses it into an events.Event, dropping malformed items
//  5. drops redelivered events and events authored by the bot itself
//  6. hands non-message events to the observer
//  7. dispatches lines addressed to the bot by name, or pushes unaddressed
//     lines to the fan queue while a machine is waiting for input
//
// A failure while handling one item is logged and never ends the loop. The
// loop also ends when general.switch turns off or the context is cancelled.
package listener
