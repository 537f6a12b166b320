package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"github.com/dshills/spk/internal/binding"
)

// DefaultCommandLine runs commands through the Sublime Text CLI.
const DefaultCommandLine = "subl"

// ExecRunner runs each command through the editor command line tool as
// `<program> [flags] --command "<name> <json args>"`.
type ExecRunner struct {
	argv   []string
	logger logrus.FieldLogger
}

// NewExecRunner splits commandLine with shell quoting rules. An empty
// command line uses DefaultCommandLine.
func NewExecRunner(commandLine string, logger logrus.FieldLogger) (*ExecRunner, error) {
	if strings.TrimSpace(commandLine) == "" {
		commandLine = DefaultCommandLine
	}
	argv, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parsing editor command line: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommandLine
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &ExecRunner{argv: argv, logger: logger}, nil
}

// Argv returns the process arguments used for one invocation.
func (r *ExecRunner) Argv(name string, args *binding.Args) ([]string, error) {
	line, err := FormatInvocation(name, args)
	if err != nil {
		return nil, err
	}
	argv := make([]string, 0, len(r.argv)+2)
	argv = append(argv, r.argv...)
	return append(argv, "--command", line), nil
}

// RunCommand implements Runner.
func (r *ExecRunner) RunCommand(ctx context.Context, name string, args *binding.Args) error {
	argv, err := r.Argv(name, args)
	if err != nil {
		return err
	}

	r.logger.WithField("argv", argv).Debug("Running editor command")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// PrintRunner writes each invocation to W instead of running it.
type PrintRunner struct {
	W io.Writer
}

// RunCommand implements Runner.
func (r PrintRunner) RunCommand(_ context.Context, name string, args *binding.Args) error {
	line, err := FormatInvocation(name, args)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.W, line)
	return err
}

// RecordingRunner keeps every invocation it receives. Fail, when set,
// decides whether an invocation fails.
type RecordingRunner struct {
	mu    sync.Mutex
	calls []binding.Invocation

	Fail func(name string) error
}

// RunCommand implements Runner.
func (r *RecordingRunner) RunCommand(_ context.Context, name string, args *binding.Args) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Fail != nil {
		if err := r.Fail(name); err != nil {
			return err
		}
	}
	r.calls = append(r.calls, binding.Invocation{Command: name, Args: args})
	return nil
}

// Calls returns the recorded invocations in order.
func (r *RecordingRunner) Calls() []binding.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]binding.Invocation, len(r.calls))
	copy(out, r.calls)
	return out
}

// Names returns the recorded command names in order.
func (r *RecordingRunner) Names() []string {
	calls := r.Calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Command
	}
	return names
}

// FormatInvocation renders name and args the way the editor CLI expects
// them: the name, then the args object when it is not empty.
func FormatInvocation(name string, args *binding.Args) (string, error) {
	if args.Len() == 0 {
		return name, nil
	}
	data, err := args.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encoding args for %s: %w", name, err)
	}
	return name + " " + string(data), nil
}
