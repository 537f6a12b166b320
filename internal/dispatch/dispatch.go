package dispatch

import (
	"context"

	"github.com/dshills/spk/internal/binding"
)

// Runner executes a single named command in the host.
type Runner interface {
	RunCommand(ctx context.Context, name string, args *binding.Args) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args *binding.Args) error

// RunCommand calls f.
func (f RunnerFunc) RunCommand(ctx context.Context, name string, args *binding.Args) error {
	return f(ctx, name, args)
}

// Dispatch runs commands in order and returns how many were invoked.
// An entry with an empty name ends playback without error. A runner
// failure ends playback and is returned as a *RunError.
func Dispatch(ctx context.Context, r Runner, commands []binding.Invocation) (int, error) {
	ran := 0
	for i, inv := range commands {
		if inv.Command == "" {
			break
		}
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		if err := r.RunCommand(ctx, inv.Command, inv.Args); err != nil {
			return ran, &RunError{Index: i, Command: inv.Command, Err: err}
		}
		ran++
	}
	return ran, nil
}

// DispatchRecord runs the command a key map record is bound to. Composite
// records are played back; anything else is a single invocation.
func DispatchRecord(ctx context.Context, r Runner, rec binding.Record) (int, error) {
	if rec.Command == binding.MultiCommand {
		return Dispatch(ctx, r, rec.SubCommands())
	}
	return Dispatch(ctx, r, []binding.Invocation{{Command: rec.Command, Args: rec.Args}})
}
