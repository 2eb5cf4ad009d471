// Package shell routes command lines to registered commands.
//
// # Overview
//
// A Shell maps keywords to Command values. Do splits a line into its leading
// keyword (matched case-insensitively) and the remaining arguments, then
// executes the matching command:
//
//	sh := shell.New(agent, logger)
//	_ = sh.Load(shell.NewHelp(sh), shell.NewEcho(), shell.NewDefault())
//	sh.Do(ctx, "echo hello")       // Echo receives "hello"
//	sh.Do(ctx, "frobnicate now")   // *default receives "frobnicate now"
//
// # Reserved keywords
//
//   - "*default" handles lines whose keyword is unknown, with the whole line
//     as arguments.
//   - "*empty" handles empty lines; without it "help" is used.
//
// # Emission
//
// Commands reply through the Agent they receive (Say, RespondTo). They may
// emit nothing, one payload or many; the shell never touches the outbound
// queue itself.
//
// # Failures
//
// An error returned or a panic raised by one command is logged and reported
// to the chat space, and the shell keeps serving later lines.
package shell
