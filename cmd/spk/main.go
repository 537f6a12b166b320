// Package main is the entry point for spk, the key binding compiler.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/spk/internal/compiler"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}
	return 0
}

// userMessage returns the text shown for a failed command. Compile
// failures get the end-user texts; anything else is reported as is.
func userMessage(err error) string {
	var ce *compiler.CompilationError
	if compiler.IsRecoverable(err) || errors.As(err, &ce) {
		return compiler.UserMessage(err)
	}
	return "Error: " + err.Error()
}
