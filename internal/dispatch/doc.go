// Package dispatch plays back composite commands.
//
// A key map record whose command is binding.MultiCommand carries an ordered
// list of invocations under args.commands. Dispatch runs them in order
// through a Runner, the host facility that knows how to execute a named
// command. Playback stops at the first entry without a name or at the first
// runner failure. Entries that already ran are not undone.
//
// Runners:
//
//   - ExecRunner: invokes the editor command line tool
//   - PrintRunner: writes one line per invocation, for dry runs
//   - RecordingRunner: keeps invocations in memory, for tests
package dispatch
