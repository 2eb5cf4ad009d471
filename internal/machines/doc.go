// Package machines drives multi-turn conversations with finite-state machines.
//
// # Base
//
// Base is a small table-driven FSM. A machine declares its states and a list
// of transitions, each keyed by source state and event, optionally guarded by
// a condition and carrying an action. States without outgoing transitions are
// terminal. Once started, Base runs a worker goroutine that:
//
//   - fires "start" once
//   - pulls the bot's fan queue with a bounded wait of Tick
//   - fires "input" for each item and "tick" on every empty wait
//   - stops on Stop, on a nil fan item, or when the general switch is off
//
// While waiting, the worker refreshes fan.stamp in the Context so that the
// listener routes unaddressed chat lines to the fan queue.
//
// # Composites
//
//   - Input asks one question and stores a validated answer
//   - Menu is an Input restricted to a list of options
//   - Sequence runs machines back to back
//   - Steps walks a named list of steps driven by next/back commands
//
// Lifecycle of every machine: idle, running, then completed, cancelled or
// timed-out. Reset is refused while running.
package machines
